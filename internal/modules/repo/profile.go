package repo

import (
	"context"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Profile, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Upsert inserts p or, on id conflict, overwrites only the given columns.
	Upsert(ctx context.Context, p *model.Profile, columns []string) error
	// EnsureExists creates an empty profile for id unless one is already there.
	EnsureExists(ctx context.Context, id uuid.UUID, fullName string) error
	ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Profile, error)
}

type profileRepo struct{ db *gorm.DB }

func NewProfileRepo(db *gorm.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ps []model.Profile
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}

func (r *profileRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *profileRepo) Upsert(ctx context.Context, p *model.Profile, columns []string) error {
	cols := append([]string{"updated_at"}, columns...)
	if p.Roles == nil {
		p.Roles = pq.StringArray{}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(p).Error
}

func (r *profileRepo) EnsureExists(ctx context.Context, id uuid.UUID, fullName string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Profile{ID: id, FullName: fullName, Roles: pq.StringArray{}}).Error
}

func (r *profileRepo) ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Profile, error) {
	q := r.db.WithContext(ctx).
		Where("want_in_project = ?", true).
		Where("id <> ?", viewer)
	if len(roles) > 0 {
		q = q.Where("roles && ?", pq.StringArray(roles))
	}
	if len(skillIDs) > 0 {
		sub := r.db.Model(&model.UserSkill{}).Select("user_id").Where("skill_id IN ?", skillIDs)
		q = q.Where("id IN (?)", sub)
	}

	var ps []model.Profile
	err := q.Order("updated_at DESC").Find(&ps).Error
	return ps, err
}
