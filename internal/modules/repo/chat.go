package repo

import (
	"context"
	"time"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepo interface {
	ExistsForPair(ctx context.Context, a, b uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Chat, error)
	// Counterparts lists the other participant of every chat of userID.
	Counterparts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// Delete removes the chat's messages and then the chat in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *model.Message) error
	// ListMessages returns messages ordered by (created_at, id) ascending,
	// strictly after the (afterCreatedAt, afterID) cursor when one is given.
	ListMessages(ctx context.Context, chatID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Message, error)
}

type chatRepo struct{ db *gorm.DB }

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepo{db: db}
}

func (r *chatRepo) ExistsForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	low, high := model.OrderedPair(a, b)
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Chat{}).
		Where("user_low = ? AND user_high = ?", low, high).
		Count(&n).Error
	return n > 0, err
}

func (r *chatRepo) Get(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	var c model.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chatRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	var cs []model.Chat
	err := r.db.WithContext(ctx).
		Where("user_low = ? OR user_high = ?", userID, userID).
		Order("created_at DESC").
		Find(&cs).Error
	return cs, err
}

func (r *chatRepo) Counterparts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Chat{}).
		Select("CASE WHEN user_low = ? THEN user_high ELSE user_low END", userID).
		Where("user_low = ? OR user_high = ?", userID, userID).
		Scan(&ids).Error
	return ids, err
}

func (r *chatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Chat{}).Error
	})
}

func (r *chatRepo) CreateMessage(ctx context.Context, m *model.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *chatRepo) ListMessages(ctx context.Context, chatID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Message, error) {
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where("(created_at, id) > (?, ?)", afterCreatedAt, afterID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []model.Message
	err := q.Order("created_at ASC, id ASC").Find(&ms).Error
	return ms, err
}
