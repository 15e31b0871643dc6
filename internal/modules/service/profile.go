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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*ProfileView, error)
	Upsert(ctx context.Context, owner uuid.UUID, in UpsertProfileInput) (*ProfileView, error)
	ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]ProfileView, error)
	UploadAvatar(ctx context.Context, owner uuid.UUID, body []byte) (*ProfileView, error)
	RemoveAvatar(ctx context.Context, owner uuid.UUID) error
	// EnsureProfile creates the row on first sight of a user. Existing rows are left alone.
	EnsureProfile(ctx context.Context, id uuid.UUID, fullName string) error
}

// UpsertProfileInput carries the editable fields. Nil means unchanged.
type UpsertProfileInput struct {
	FullName      *string
	Bio           *string
	Roles         *[]string
	WantInProject *bool
}

type ProfileView struct {
	model.Profile
	AvatarURL string        `json:"avatar_url,omitempty"`
	Skills    []model.Skill `json:"skills"`
}

type profileService struct {
	profiles repo.ProfileRepo
	skills   repo.SkillRepo
	store    blob.Store
	bucket   string
	events   *Events
	log      *zap.Logger
	now      func() time.Time
}

func NewProfileService(profiles repo.ProfileRepo, skills repo.SkillRepo, store blob.Store, avatarBucket string, events *Events, log *zap.Logger) ProfileService {
	return &profileService{
		profiles: profiles,
		skills:   skills,
		store:    store,
		bucket:   avatarBucket,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

func (s *profileService) view(p *model.Profile, skills []model.Skill) *ProfileView {
	v := &ProfileView{Profile: *p, Skills: skills}
	if v.Skills == nil {
		v.Skills = []model.Skill{}
	}
	if p.AvatarPath != "" && s.store != nil {
		v.AvatarURL = s.store.PublicURL(s.bucket, p.AvatarPath)
	}
	return v
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*ProfileView, error) {
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	skills, err := s.skills.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(p, skills), nil
}

func validRoles(roles []string) bool {
	for _, r := range roles {
		if !model.IsRole(r) {
			return false
		}
	}
	return true
}

func (s *profileService) Upsert(ctx context.Context, owner uuid.UUID, in UpsertProfileInput) (*ProfileView, error) {
	p := &model.Profile{ID: owner}
	var columns []string
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name must not be empty", ErrInvalidInput)
		}
		p.FullName = name
		columns = append(columns, "full_name")
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
		columns = append(columns, "bio")
	}
	if in.Roles != nil {
		if !validRoles(*in.Roles) {
			return nil, fmt.Errorf("%w: unknown role", ErrInvalidInput)
		}
		p.Roles = dedupe(*in.Roles)
		columns = append(columns, "roles")
	}
	if in.WantInProject != nil {
		p.WantInProject = *in.WantInProject
		columns = append(columns, "want_in_project")
	}

	if err := s.profiles.Upsert(ctx, p, columns); err != nil {
		return nil, err
	}
	s.events.Changed(ctx, "profiles", realtime.Update, map[string]string{"id": owner.String()})
	return s.Get(ctx, owner)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *profileService) ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]ProfileView, error) {
	if !validRoles(roles) {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidInput)
	}
	ps, err := s.profiles.ListSeeking(ctx, viewer, roles, skillIDs)
	if err != nil {
		return nil, err
	}
	out := make([]ProfileView, 0, len(ps))
	for i := range ps {
		skills, err := s.skills.ListForUser(ctx, ps[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *s.view(&ps[i], skills))
	}
	return out, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, owner uuid.UUID, body []byte) (*ProfileView, error) {
	p, err := s.profiles.Get(ctx, owner)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prefix := fmt.Sprintf("%s/avatar_%d", owner, s.now().Unix())
	meta, err := s.store.UploadImage(ctx, s.bucket, prefix, body)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			return nil, ErrNotImage
		}
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.profiles.Upsert(ctx, &model.Profile{ID: owner, AvatarPath: meta.Key}, []string{"avatar_path"}); err != nil {
		return nil, err
	}
	if p != nil && p.AvatarPath != "" && p.AvatarPath != meta.Key {
		if err := s.store.Remove(ctx, s.bucket, p.AvatarPath); err != nil {
			s.log.Warn("remove previous avatar", zap.String("key", p.AvatarPath), zap.Error(err))
		}
	}
	s.events.Changed(ctx, "profiles", realtime.Update, map[string]string{"id": owner.String()})
	return s.Get(ctx, owner)
}

func (s *profileService) RemoveAvatar(ctx context.Context, owner uuid.UUID) error {
	p, err := s.profiles.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.AvatarPath == "" {
		return nil
	}
	if err := s.store.Remove(ctx, s.bucket, p.AvatarPath); err != nil {
		return fmt.Errorf("remove avatar: %w", err)
	}
	if err := s.profiles.Upsert(ctx, &model.Profile{ID: owner}, []string{"avatar_path"}); err != nil {
		return err
	}
	s.events.Changed(ctx, "profiles", realtime.Update, map[string]string{"id": owner.String()})
	return nil
}

func (s *profileService) EnsureProfile(ctx context.Context, id uuid.UUID, fullName string) error {
	return s.profiles.EnsureExists(ctx, id, strings.TrimSpace(fullName))
}
