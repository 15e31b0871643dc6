package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artel-team/artel/internal/infra/blob"
	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/repo"
	"github.com/artel-team/artel/internal/realtime"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ProjectService interface {
	Create(ctx context.Context, owner uuid.UUID, in ProjectInput) (*ProjectView, error)
	Update(ctx context.Context, owner, id uuid.UUID, in ProjectInput) (*ProjectView, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	UploadImage(ctx context.Context, owner, id uuid.UUID, body []byte) (*ProjectView, error)
	List(ctx context.Context, viewer uuid.UUID, f ProjectFilter) ([]ProjectView, error)
	Board(ctx context.Context, viewer uuid.UUID, f ProjectFilter) ([]BoardItem, error)
	Respond(ctx context.Context, viewer, id uuid.UUID) (*model.Invitation, error)
}

type ProjectInput struct {
	Title    string
	Roles    []string
	SkillIDs []int
}

type ProjectFilter struct {
	Roles    []string
	SkillIDs []int
}

type ProjectView struct {
	model.Project
	ImageURL string        `json:"image_url,omitempty"`
	Skills   []model.Skill `json:"skills"`
}

// BoardItem is a project as seen by one viewer.
type BoardItem struct {
	ProjectView
	Own           bool `json:"own"`
	Responded     bool `json:"responded"`
	HasChat       bool `json:"has_chat"`
	InvitePending bool `json:"invite_pending"`
}

type projectService struct {
	projects    repo.ProjectRepo
	skills      repo.SkillRepo
	responses   repo.ResponseRepo
	chats       repo.ChatRepo
	invitations repo.InvitationRepo
	inviter     InvitationService
	store       blob.Store
	bucket      string
	events      *Events
	log         *zap.Logger
	now         func() time.Time
}

func NewProjectService(
	projects repo.ProjectRepo,
	skills repo.SkillRepo,
	responses repo.ResponseRepo,
	chats repo.ChatRepo,
	invitations repo.InvitationRepo,
	inviter InvitationService,
	store blob.Store,
	imageBucket string,
	events *Events,
	log *zap.Logger,
) ProjectService {
	return &projectService{
		projects:    projects,
		skills:      skills,
		responses:   responses,
		chats:       chats,
		invitations: invitations,
		inviter:     inviter,
		store:       store,
		bucket:      imageBucket,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

func (s *projectService) validate(ctx context.Context, in ProjectInput) (ProjectInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if !validRoles(in.Roles) {
		return in, fmt.Errorf("%w: unknown role", ErrInvalidInput)
	}
	in.Roles = dedupe(in.Roles)
	ids, err := checkSkillIDs(ctx, s.skills, in.SkillIDs)
	if err != nil {
		return in, err
	}
	in.SkillIDs = ids
	return in, nil
}

func (s *projectService) views(ctx context.Context, ps []model.Project) ([]ProjectView, error) {
	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	skills, err := s.skills.ListForProjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectView, 0, len(ps))
	for _, p := range ps {
		v := ProjectView{Project: p, Skills: skills[p.ID]}
		if v.Skills == nil {
			v.Skills = []model.Skill{}
		}
		if p.ImagePath != "" && s.store != nil {
			v.ImageURL = s.store.PublicURL(s.bucket, p.ImagePath)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *projectService) view(ctx context.Context, p *model.Project) (*ProjectView, error) {
	vs, err := s.views(ctx, []model.Project{*p})
	if err != nil {
		return nil, err
	}
	return &vs[0], nil
}

// owned loads the project and checks that owner holds it.
func (s *projectService) owned(ctx context.Context, owner, id uuid.UUID) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.OwnerID != owner {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *projectService) Create(ctx context.Context, owner uuid.UUID, in ProjectInput) (*ProjectView, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	p := &model.Project{
		ID:            uuid.New(),
		OwnerID:       owner,
		Title:         in.Title,
		RequiredRoles: pq.StringArray(in.Roles),
	}
	if err := s.projects.Create(ctx, p, in.SkillIDs); err != nil {
		return nil, err
	}
	s.events.Changed(ctx, "projects", realtime.Insert, map[string]string{"id": p.ID.String(), "owner_id": owner.String()})
	return s.view(ctx, p)
}

func (s *projectService) Update(ctx context.Context, owner, id uuid.UUID, in ProjectInput) (*ProjectView, error) {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	in, err = s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Title = in.Title
	p.RequiredRoles = pq.StringArray(in.Roles)
	if err := s.projects.Update(ctx, p, in.SkillIDs); err != nil {
		return nil, err
	}
	s.events.Changed(ctx, "projects", realtime.Update, map[string]string{"id": p.ID.String(), "owner_id": owner.String()})
	return s.view(ctx, p)
}

func (s *projectService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if p.ImagePath != "" {
		if err := s.store.Remove(ctx, s.bucket, p.ImagePath); err != nil {
			return fmt.Errorf("remove project image: %w", err)
		}
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Changed(ctx, "projects", realtime.Delete, map[string]string{"id": id.String(), "owner_id": owner.String()})
	return nil
}

func (s *projectService) UploadImage(ctx context.Context, owner, id uuid.UUID, body []byte) (*ProjectView, error) {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%s/cover_%d", id, s.now().Unix())
	meta, err := s.store.UploadImage(ctx, s.bucket, prefix, body)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			return nil, ErrNotImage
		}
		return nil, fmt.Errorf("upload project image: %w", err)
	}
	if err := s.projects.UpdateImagePath(ctx, id, meta.Key); err != nil {
		return nil, err
	}
	if p.ImagePath != "" && p.ImagePath != meta.Key {
		if err := s.store.Remove(ctx, s.bucket, p.ImagePath); err != nil {
			s.log.Warn("remove replaced project image", zap.String("key", p.ImagePath), zap.Error(err))
		}
	}
	p.ImagePath = meta.Key
	s.events.Changed(ctx, "projects", realtime.Update, map[string]string{"id": id.String(), "owner_id": owner.String()})
	return s.view(ctx, p)
}

func (s *projectService) List(ctx context.Context, viewer uuid.UUID, f ProjectFilter) ([]ProjectView, error) {
	if !validRoles(f.Roles) {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidInput)
	}
	ps, err := s.projects.List(ctx, viewer, f.Roles, uniqueIDs(f.SkillIDs))
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ps)
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (s *projectService) Board(ctx context.Context, viewer uuid.UUID, f ProjectFilter) ([]BoardItem, error) {
	var (
		projects     []ProjectView
		responses    []model.ProjectResponse
		counterparts []uuid.UUID
		pending      []uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.List(gctx, viewer, f)
		return err
	})
	g.Go(func() (err error) {
		responses, err = s.responses.ListByUser(gctx, viewer)
		return err
	})
	g.Go(func() (err error) {
		counterparts, err = s.chats.Counterparts(gctx, viewer)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.invitations.PendingRecipients(gctx, viewer)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	responded := make(map[uuid.UUID]struct{}, len(responses))
	for _, r := range responses {
		responded[r.ProjectID] = struct{}{}
	}
	chatWith := toSet(counterparts)
	invited := toSet(pending)

	out := make([]BoardItem, 0, len(projects))
	for _, p := range projects {
		item := BoardItem{ProjectView: p, Own: p.OwnerID == viewer}
		_, item.Responded = responded[p.ID]
		_, item.HasChat = chatWith[p.OwnerID]
		_, item.InvitePending = invited[p.OwnerID]
		out = append(out, item)
	}
	return out, nil
}

func (s *projectService) Respond(ctx context.Context, viewer, id uuid.UUID) (*model.Invitation, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.OwnerID == viewer {
		return nil, ErrOwnProject
	}

	hasChat, err := s.chats.ExistsForPair(ctx, viewer, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if hasChat {
		return nil, ErrChatExists
	}
	pending, err := s.invitations.HasPending(ctx, viewer, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrInvitationExists
	}
	responded, err := s.responses.Exists(ctx, p.ID, viewer)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, ErrAlreadyResponded
	}

	projectID := p.ID
	return s.inviter.Send(ctx, SendInvitationInput{
		From:         viewer,
		To:           p.OwnerID,
		ProjectID:    &projectID,
		ProjectTitle: p.Title,
	})
}
