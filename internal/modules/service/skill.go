package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/repo"
	"github.com/artel-team/artel/internal/realtime"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type SkillService interface {
	List(ctx context.Context) ([]model.Skill, error)
	GetUserSkills(ctx context.Context, userID uuid.UUID) ([]model.Skill, error)
	// SetUserSkills fully replaces the user's selection.
	SetUserSkills(ctx context.Context, userID uuid.UUID, ids []int) ([]model.Skill, error)
	Seed(ctx context.Context, r io.Reader) (int64, error)
}

type skillService struct {
	skills repo.SkillRepo
	events *Events
}

func NewSkillService(skills repo.SkillRepo, events *Events) SkillService {
	return &skillService{skills: skills, events: events}
}

func (s *skillService) List(ctx context.Context) ([]model.Skill, error) {
	return s.skills.List(ctx)
}

func (s *skillService) GetUserSkills(ctx context.Context, userID uuid.UUID) ([]model.Skill, error) {
	return s.skills.ListForUser(ctx, userID)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// checkSkillIDs rejects ids that are not in the catalog.
func checkSkillIDs(ctx context.Context, skills repo.SkillRepo, ids []int) ([]int, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	n, err := skills.CountExisting(ctx, ids)
	if err != nil {
		return nil, err
	}
	if n != int64(len(ids)) {
		return nil, fmt.Errorf("%w: unknown skill id", ErrInvalidInput)
	}
	return ids, nil
}

func (s *skillService) SetUserSkills(ctx context.Context, userID uuid.UUID, ids []int) ([]model.Skill, error) {
	ids, err := checkSkillIDs(ctx, s.skills, ids)
	if err != nil {
		return nil, err
	}
	if err := s.skills.ReplaceUserSkills(ctx, userID, ids); err != nil {
		return nil, err
	}
	s.events.Changed(ctx, "user_skills", realtime.Update, map[string]string{"user_id": userID.String()})
	return s.skills.ListForUser(ctx, userID)
}

type skillCatalog struct {
	Skills []model.Skill `yaml:"skills"`
}

func (s *skillService) Seed(ctx context.Context, r io.Reader) (int64, error) {
	var cat skillCatalog
	if err := yaml.NewDecoder(r).Decode(&cat); err != nil {
		return 0, fmt.Errorf("decode skill catalog: %w", err)
	}
	for i := range cat.Skills {
		cat.Skills[i].Name = strings.TrimSpace(cat.Skills[i].Name)
		if cat.Skills[i].Name == "" || !cat.Skills[i].Category.Valid() {
			return 0, fmt.Errorf("%w: skill %d: name=%q category=%q", ErrInvalidInput, i, cat.Skills[i].Name, cat.Skills[i].Category)
		}
	}
	return s.skills.UpsertByName(ctx, cat.Skills)
}
