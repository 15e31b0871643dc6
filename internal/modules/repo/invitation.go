package repo

import (
	"context"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitationRepo interface {
	// Create fails with gorm.ErrDuplicatedKey when a pending invitation for the
	// same (from, to) pair already exists.
	Create(ctx context.Context, inv *model.Invitation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Invitation, error)
	HasPending(ctx context.Context, from, to uuid.UUID) (bool, error)
	ListIncoming(ctx context.Context, to uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error)
	ListOutgoing(ctx context.Context, from uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error)
	// PendingRecipients lists to_user of every pending invitation sent by from.
	PendingRecipients(ctx context.Context, from uuid.UUID) ([]uuid.UUID, error)
	// Reject moves a pending invitation to rejected; ErrStaleState if it is no longer pending.
	Reject(ctx context.Context, id uuid.UUID) error
	// Accept moves a pending invitation to accepted and inserts chat in the same
	// transaction. ErrStaleState if it is no longer pending; gorm.ErrDuplicatedKey
	// if a chat for the pair already exists. Nothing is written on error.
	Accept(ctx context.Context, id uuid.UUID, chat *model.Chat) error
}

type invitationRepo struct{ db *gorm.DB }

func NewInvitationRepo(db *gorm.DB) InvitationRepo {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Status == "" {
		inv.Status = model.InvitationPending
	}
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepo) HasPending(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("from_user = ? AND to_user = ? AND status = ?", from, to, model.InvitationPending).
		Count(&n).Error
	return n > 0, err
}

func (r *invitationRepo) ListIncoming(ctx context.Context, to uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error) {
	var invs []model.Invitation
	err := r.db.WithContext(ctx).
		Where("to_user = ? AND status = ?", to, status).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) ListOutgoing(ctx context.Context, from uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error) {
	var invs []model.Invitation
	err := r.db.WithContext(ctx).
		Where("from_user = ? AND status = ?", from, status).
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}

func (r *invitationRepo) PendingRecipients(ctx context.Context, from uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("from_user = ? AND status = ?", from, model.InvitationPending).
		Pluck("to_user", &ids).Error
	return ids, err
}

func transition(tx *gorm.DB, id uuid.UUID, to model.InvitationStatus) error {
	res := tx.Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Updates(map[string]interface{}{"status": to, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *invitationRepo) Reject(ctx context.Context, id uuid.UUID) error {
	return transition(r.db.WithContext(ctx), id, model.InvitationRejected)
}

func (r *invitationRepo) Accept(ctx context.Context, id uuid.UUID, chat *model.Chat) error {
	if chat.ID == uuid.Nil {
		chat.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, id, model.InvitationAccepted); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(chat).Error
	})
}
