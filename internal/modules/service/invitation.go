package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/repo"
	"github.com/artel-team/artel/internal/realtime"
	"github.com/artel-team/artel/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InvitationService interface {
	Send(ctx context.Context, in SendInvitationInput) (*model.Invitation, error)
	ListIncoming(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]InvitationView, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]InvitationView, error)
	Accept(ctx context.Context, recipient, id uuid.UUID) (*model.Chat, error)
	Reject(ctx context.Context, recipient, id uuid.UUID) error
	// ReconcileResponses deletes the user's responses whose implied invitation
	// and chat never materialized, returning the affected project ids.
	ReconcileResponses(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// ReconcileAll runs ReconcileResponses for every user holding a response.
	ReconcileAll(ctx context.Context) (int, error)
}

type SendInvitationInput struct {
	From         uuid.UUID
	To           uuid.UUID
	ProjectID    *uuid.UUID
	ProjectTitle string
}

type InvitationView struct {
	model.Invitation
	FromUserName string `json:"from_user_name"`
	ToUserName   string `json:"to_user_name"`
}

// UnknownName is shown for a counterpart without a profile.
const UnknownName = "Unknown"

type invitationService struct {
	invitations repo.InvitationRepo
	chats       repo.ChatRepo
	profiles    repo.ProfileRepo
	projects    repo.ProjectRepo
	responses   repo.ResponseRepo
	events      *Events
	log         *zap.Logger
}

func NewInvitationService(
	invitations repo.InvitationRepo,
	chats repo.ChatRepo,
	profiles repo.ProfileRepo,
	projects repo.ProjectRepo,
	responses repo.ResponseRepo,
	events *Events,
	log *zap.Logger,
) InvitationService {
	return &invitationService{
		invitations: invitations,
		chats:       chats,
		profiles:    profiles,
		projects:    projects,
		responses:   responses,
		events:      events,
		log:         log,
	}
}

func (s *invitationService) Send(ctx context.Context, in SendInvitationInput) (*model.Invitation, error) {
	if in.From == uuid.Nil || in.To == uuid.Nil {
		return nil, ErrInvalidInput
	}
	if in.From == in.To {
		return nil, ErrSelfInvite
	}
	ok, err := s.profiles.Exists(ctx, in.To)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecipientNotFound
	}

	hasChat, err := s.chats.ExistsForPair(ctx, in.From, in.To)
	if err != nil {
		return nil, err
	}
	if hasChat {
		telemetry.RecordInvitationConflict(ctx, "chat_exists")
		return nil, ErrChatExists
	}
	pending, err := s.invitations.HasPending(ctx, in.From, in.To)
	if err != nil {
		return nil, err
	}
	if pending {
		telemetry.RecordInvitationConflict(ctx, "pending_exists")
		return nil, ErrInvitationExists
	}

	inv := &model.Invitation{
		FromUser:     in.From,
		ToUser:       in.To,
		Status:       model.InvitationPending,
		ProjectID:    in.ProjectID,
		ProjectTitle: in.ProjectTitle,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against a concurrent send for the same pair
			telemetry.RecordInvitationConflict(ctx, "pending_exists")
			return nil, ErrInvitationExists
		}
		return nil, err
	}
	telemetry.RecordInvitationTransition(ctx, "sent")

	if in.ProjectID != nil {
		if err := s.responses.Create(ctx, *in.ProjectID, in.From); err != nil {
			// the reconciler treats a missing response as harmless
			s.log.Warn("record project response", zap.Error(err), zap.String("project_id", in.ProjectID.String()))
		}
	}

	s.events.Changed(ctx, "invitations", realtime.Insert, invitationRecord(inv), inv.FromUser.String(), inv.ToUser.String())
	s.events.Notify(ctx, inv.ToUser.String(), "New invitation", s.displayName(ctx, inv.FromUser)+invitationSuffix(inv), map[string]string{
		"kind":          "invitation",
		"invitation_id": inv.ID.String(),
	})
	return inv, nil
}

func invitationSuffix(inv *model.Invitation) string {
	if inv.ProjectTitle != "" {
		return fmt.Sprintf(" invited you to %q", inv.ProjectTitle)
	}
	return " wants to work with you"
}

func invitationRecord(inv *model.Invitation) map[string]string {
	rec := map[string]string{
		"id":        inv.ID.String(),
		"from_user": inv.FromUser.String(),
		"to_user":   inv.ToUser.String(),
		"status":    string(inv.Status),
	}
	if inv.ProjectID != nil {
		rec["project_id"] = inv.ProjectID.String()
	}
	return rec
}

func (s *invitationService) displayName(ctx context.Context, id uuid.UUID) string {
	p, err := s.profiles.Get(ctx, id)
	if err != nil || p.FullName == "" {
		return UnknownName
	}
	return p.FullName
}

func (s *invitationService) names(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(ids))
	ps, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		s.log.Warn("load profile names", zap.Error(err))
	}
	for _, p := range ps {
		if p.FullName != "" {
			out[p.ID] = p.FullName
		}
	}
	return out
}

func nameOr(names map[uuid.UUID]string, id uuid.UUID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return UnknownName
}

func (s *invitationService) views(ctx context.Context, invs []model.Invitation) []InvitationView {
	ids := make([]uuid.UUID, 0, len(invs)*2)
	for _, inv := range invs {
		ids = append(ids, inv.FromUser, inv.ToUser)
	}
	names := s.names(ctx, ids)

	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, InvitationView{
			Invitation:   inv,
			FromUserName: nameOr(names, inv.FromUser),
			ToUserName:   nameOr(names, inv.ToUser),
		})
	}
	return out
}

func (s *invitationService) ListIncoming(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]InvitationView, error) {
	if status == "" {
		status = model.InvitationPending
	}
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	invs, err := s.invitations.ListIncoming(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, invs), nil
}

func (s *invitationService) ListOutgoing(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]InvitationView, error) {
	if status == "" {
		status = model.InvitationPending
	}
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	invs, err := s.invitations.ListOutgoing(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, invs), nil
}

// loadForRecipient re-reads the invitation and applies the recipient and
// pending guards shared by Accept and Reject.
func (s *invitationService) loadForRecipient(ctx context.Context, recipient, id uuid.UUID) (*model.Invitation, error) {
	inv, err := s.invitations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inv.ToUser != recipient {
		return nil, ErrForbidden
	}
	if inv.Status != model.InvitationPending {
		return nil, ErrInvitationProcessed
	}
	return inv, nil
}

func (s *invitationService) Accept(ctx context.Context, recipient, id uuid.UUID) (*model.Chat, error) {
	start := time.Now()
	chat, err := s.accept(ctx, recipient, id)
	outcome := "accepted"
	if err != nil {
		outcome = "refused"
	}
	telemetry.RecordAcceptDuration(ctx, float64(time.Since(start).Microseconds())/1000, outcome)
	return chat, err
}

func (s *invitationService) accept(ctx context.Context, recipient, id uuid.UUID) (*model.Chat, error) {
	inv, err := s.loadForRecipient(ctx, recipient, id)
	if err != nil {
		return nil, err
	}

	hasChat, err := s.chats.ExistsForPair(ctx, inv.FromUser, inv.ToUser)
	if err != nil {
		return nil, err
	}
	if hasChat {
		telemetry.RecordInvitationConflict(ctx, "chat_exists")
		return nil, ErrChatExists
	}

	chat := model.NewChat(inv.FromUser, inv.ToUser, inv.ProjectID, inv.ProjectTitle)
	if err := s.invitations.Accept(ctx, inv.ID, chat); err != nil {
		switch {
		case errors.Is(err, repo.ErrStaleState):
			return nil, ErrInvitationProcessed
		case errors.Is(err, gorm.ErrDuplicatedKey):
			telemetry.RecordInvitationConflict(ctx, "chat_exists")
			return nil, ErrChatExists
		}
		return nil, err
	}
	inv.Status = model.InvitationAccepted
	telemetry.RecordInvitationTransition(ctx, "accepted")

	from, to := inv.FromUser.String(), inv.ToUser.String()
	s.events.Changed(ctx, "invitations", realtime.Update, invitationRecord(inv), from, to)
	s.events.Changed(ctx, "chats", realtime.Insert, map[string]string{"id": chat.ID.String()}, from, to)
	s.events.Notify(ctx, from, "Invitation accepted", s.displayName(ctx, inv.ToUser)+" accepted your invitation", map[string]string{
		"kind":    "chat",
		"chat_id": chat.ID.String(),
	})
	return chat, nil
}

func (s *invitationService) Reject(ctx context.Context, recipient, id uuid.UUID) error {
	inv, err := s.loadForRecipient(ctx, recipient, id)
	if err != nil {
		return err
	}
	if err := s.invitations.Reject(ctx, inv.ID); err != nil {
		if errors.Is(err, repo.ErrStaleState) {
			return ErrInvitationProcessed
		}
		return err
	}
	inv.Status = model.InvitationRejected
	telemetry.RecordInvitationTransition(ctx, "rejected")
	s.events.Changed(ctx, "invitations", realtime.Update, invitationRecord(inv), inv.FromUser.String(), inv.ToUser.String())
	return nil
}

func (s *invitationService) ReconcileResponses(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rs, err := s.responses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ProjectID)
	}
	projects, err := s.projects.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	owners := make(map[uuid.UUID]uuid.UUID, len(projects))
	for _, p := range projects {
		owners[p.ID] = p.OwnerID
	}

	var deleted []uuid.UUID
	for _, r := range rs {
		owner, ok := owners[r.ProjectID]
		if !ok || owner == userID {
			continue
		}
		hasChat, err := s.chats.ExistsForPair(ctx, userID, owner)
		if err != nil {
			return deleted, err
		}
		if hasChat {
			continue
		}
		pending, err := s.invitations.HasPending(ctx, userID, owner)
		if err != nil {
			return deleted, err
		}
		if pending {
			continue
		}
		n, err := s.responses.Delete(ctx, r.ProjectID, userID)
		if err != nil {
			return deleted, err
		}
		if n > 0 {
			deleted = append(deleted, r.ProjectID)
			telemetry.ReconcileDeleted.Inc()
			s.events.Changed(ctx, "project_responses", realtime.Delete, map[string]string{
				"project_id": r.ProjectID.String(),
				"user_id":    userID.String(),
			}, userID.String())
		}
	}
	return deleted, nil
}

func (s *invitationService) ReconcileAll(ctx context.Context) (int, error) {
	users, err := s.responses.Responders(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := s.ReconcileResponses(ctx, u)
		total += len(deleted)
		if err != nil {
			s.log.Warn("reconcile responses", zap.String("user_id", u.String()), zap.Error(err))
		}
	}
	return total, nil
}
