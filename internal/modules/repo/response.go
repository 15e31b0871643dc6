package repo

import (
	"context"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponseRepo interface {
	// Create is a no-op when the (project, user) row already exists.
	Create(ctx context.Context, projectID, userID uuid.UUID) error
	Exists(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectResponse, error)
	Delete(ctx context.Context, projectID, userID uuid.UUID) (int64, error)
	// Responders lists distinct users holding at least one response.
	Responders(ctx context.Context) ([]uuid.UUID, error)
}

type responseRepo struct{ db *gorm.DB }

func NewResponseRepo(db *gorm.DB) ResponseRepo {
	return &responseRepo{db: db}
}

func (r *responseRepo) Create(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&model.ProjectResponse{ProjectID: projectID, UserID: userID}).Error
}

func (r *responseRepo) Exists(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProjectResponse{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *responseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectResponse, error) {
	var rs []model.ProjectResponse
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rs).Error
	return rs, err
}

func (r *responseRepo) Delete(ctx context.Context, projectID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectResponse{})
	return res.RowsAffected, res.Error
}

func (r *responseRepo) Responders(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ProjectResponse{}).Distinct("user_id").Pluck("user_id", &ids).Error
	return ids, err
}
