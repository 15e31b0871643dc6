package repo

import (
	"context"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo interface {
	// Create inserts the project and its skill rows in one transaction.
	Create(ctx context.Context, p *model.Project, skillIDs []int) error
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// Update writes title and roles and fully replaces the skill rows.
	Update(ctx context.Context, p *model.Project, skillIDs []int) error
	UpdateImagePath(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns projects whose roles or skills overlap the filters (no
	// filter means all), the viewer's own projects first, newest first within each group.
	List(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Project, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Project, error)
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project, skillIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		return insertProjectSkills(tx, p.ID, skillIDs)
	})
}

func (r *projectRepo) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) Update(ctx context.Context, p *model.Project, skillIDs []int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Project{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"title":          p.Title,
			"required_roles": p.RequiredRoles,
			"updated_at":     gorm.Expr("NOW()"),
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&model.ProjectSkill{}).Error; err != nil {
			return err
		}
		return insertProjectSkills(tx, p.ID, skillIDs)
	})
}

func insertProjectSkills(tx *gorm.DB, projectID uuid.UUID, skillIDs []int) error {
	if len(skillIDs) == 0 {
		return nil
	}
	rows := make([]model.ProjectSkill, 0, len(skillIDs))
	for _, id := range skillIDs {
		rows = append(rows, model.ProjectSkill{ProjectID: projectID, SkillID: id})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

func (r *projectRepo) UpdateImagePath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).
		Updates(map[string]interface{}{"image_path": path, "updated_at": gorm.Expr("NOW()")}).Error
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// project_skills and project_responses go with it through ON DELETE CASCADE
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Project{}).Error
}

func (r *projectRepo) List(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Project, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{})

	bySkill := r.db.Model(&model.ProjectSkill{}).Select("project_id").Where("skill_id IN ?", skillIDs)
	switch {
	case len(roles) > 0 && len(skillIDs) > 0:
		q = q.Where(r.db.Where("required_roles && ?", pq.StringArray(roles)).Or("id IN (?)", bySkill))
	case len(roles) > 0:
		q = q.Where("required_roles && ?", pq.StringArray(roles))
	case len(skillIDs) > 0:
		q = q.Where("id IN (?)", bySkill)
	}

	var ps []model.Project
	err := q.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "(owner_id = ?) DESC, created_at DESC",
		Vars:               []interface{}{viewer},
		WithoutParentheses: true,
	}}).Find(&ps).Error
	return ps, err
}

func (r *projectRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ps []model.Project
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}
