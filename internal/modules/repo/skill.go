package repo

import (
	"context"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillRepo interface {
	List(ctx context.Context) ([]model.Skill, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Skill, error)
	ListForProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]model.Skill, error)
	CountExisting(ctx context.Context, ids []int) (int64, error)
	// ReplaceUserSkills deletes every user_skills row of the user and inserts ids, atomically.
	ReplaceUserSkills(ctx context.Context, userID uuid.UUID, ids []int) error
	UpsertByName(ctx context.Context, skills []model.Skill) (int64, error)
}

type skillRepo struct{ db *gorm.DB }

func NewSkillRepo(db *gorm.DB) SkillRepo {
	return &skillRepo{db: db}
}

func (r *skillRepo) List(ctx context.Context) ([]model.Skill, error) {
	var ss []model.Skill
	err := r.db.WithContext(ctx).Order("name ASC").Find(&ss).Error
	return ss, err
}

func (r *skillRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Skill, error) {
	var ss []model.Skill
	err := r.db.WithContext(ctx).
		Joins("JOIN user_skills ON user_skills.skill_id = skills.id").
		Where("user_skills.user_id = ?", userID).
		Order("skills.name ASC").
		Find(&ss).Error
	return ss, err
}

type projectSkillRow struct {
	ProjectID uuid.UUID
	ID        int
	Name      string
	Category  model.SkillCategory
}

func (r *skillRepo) ListForProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]model.Skill, error) {
	out := make(map[uuid.UUID][]model.Skill, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []projectSkillRow
	err := r.db.WithContext(ctx).
		Table("project_skills").
		Select("project_skills.project_id, skills.id, skills.name, skills.category").
		Joins("JOIN skills ON skills.id = project_skills.skill_id").
		Where("project_skills.project_id IN ?", projectIDs).
		Order("skills.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProjectID] = append(out[row.ProjectID], model.Skill{ID: row.ID, Name: row.Name, Category: row.Category})
	}
	return out, nil
}

func (r *skillRepo) CountExisting(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Skill{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *skillRepo) ReplaceUserSkills(ctx context.Context, userID uuid.UUID, ids []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserSkill{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		rows := make([]model.UserSkill, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, model.UserSkill{UserID: userID, SkillID: id})
		}
		return tx.Create(&rows).Error
	})
}

func (r *skillRepo) UpsertByName(ctx context.Context, skills []model.Skill) (int64, error) {
	if len(skills) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category"}),
	}).Create(&skills)
	return res.RowsAffected, res.Error
}
