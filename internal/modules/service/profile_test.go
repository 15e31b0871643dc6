package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artel-team/artel/internal/infra/blob"
	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProfileTestService(profiles *MockProfileRepo, skills *MockSkillRepo, store *MockStore) ProfileService {
	s := NewProfileService(profiles, skills, store, "avatars", nil, zap.NewNop())
	s.(*profileService).now = func() time.Time { return fixedNow }
	return s
}

func strPtr(s string) *string { return &s }

func TestProfileService_Upsert(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	want := true
	roles := []string{"ml", "design", "ml"}
	badRoles := []string{"astronaut"}

	tests := []struct {
		name    string
		in      UpsertProfileInput
		setup   func(*MockProfileRepo, *MockSkillRepo)
		wantErr error
	}{
		{
			name:    "blank name",
			in:      UpsertProfileInput{FullName: strPtr("  ")},
			setup:   func(*MockProfileRepo, *MockSkillRepo) {},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown role",
			in:      UpsertProfileInput{Roles: &badRoles},
			setup:   func(*MockProfileRepo, *MockSkillRepo) {},
			wantErr: ErrInvalidInput,
		},
		{
			name: "only given columns are written",
			in:   UpsertProfileInput{FullName: strPtr(" Ada "), Roles: &roles, WantInProject: &want},
			setup: func(p *MockProfileRepo, s *MockSkillRepo) {
				p.On("Upsert", ctx, mock.MatchedBy(func(pr *model.Profile) bool {
					return pr.ID == owner && pr.FullName == "Ada" && len(pr.Roles) == 2 && pr.WantInProject
				}), []string{"full_name", "roles", "want_in_project"}).Return(nil)
				p.On("Get", ctx, owner).Return(&model.Profile{ID: owner, FullName: "Ada"}, nil)
				s.On("ListForUser", ctx, owner).Return([]model.Skill{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, skills := &MockProfileRepo{}, &MockSkillRepo{}
			tt.setup(profiles, skills)

			v, err := newProfileTestService(profiles, skills, &MockStore{}).Upsert(ctx, owner, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Ada", v.FullName)
			}
			profiles.AssertExpectations(t)
			skills.AssertExpectations(t)
		})
	}
}

func TestProfileService_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	profiles, skills := &MockProfileRepo{}, &MockSkillRepo{}
	profiles.On("Get", ctx, id).Return(&model.Profile{ID: id, AvatarPath: id.String() + "/avatar_1.png"}, nil).Once()
	skills.On("ListForUser", ctx, id).Return(nil, nil)

	v, err := newProfileTestService(profiles, skills, &MockStore{}).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/"+id.String()+"/avatar_1.png", v.AvatarURL)
	assert.NotNil(t, v.Skills)

	profiles.On("Get", ctx, id).Return(nil, gorm.ErrRecordNotFound)
	_, err = newProfileTestService(profiles, skills, &MockStore{}).Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileService_UploadAvatar(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	body := []byte("png")
	prefix := owner.String() + "/avatar_1767225600"

	t.Run("rejects non images", func(t *testing.T) {
		profiles, store := &MockProfileRepo{}, &MockStore{}
		profiles.On("Get", ctx, owner).Return(nil, gorm.ErrRecordNotFound)
		store.On("UploadImage", ctx, "avatars", prefix, body).Return(nil, blob.ErrNotImage)

		_, err := newProfileTestService(profiles, &MockSkillRepo{}, store).UploadAvatar(ctx, owner, body)
		assert.ErrorIs(t, err, ErrNotImage)
		profiles.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("replaces the previous avatar and tolerates a failed cleanup", func(t *testing.T) {
		profiles, skills, store := &MockProfileRepo{}, &MockSkillRepo{}, &MockStore{}
		profiles.On("Get", ctx, owner).Return(&model.Profile{ID: owner, AvatarPath: "old.png"}, nil)
		store.On("UploadImage", ctx, "avatars", prefix, body).Return(&blob.UploadedMeta{Key: prefix + ".png"}, nil)
		profiles.On("Upsert", ctx, mock.AnythingOfType("*model.Profile"), []string{"avatar_path"}).Return(nil)
		store.On("Remove", ctx, "avatars", "old.png").Return(errors.New("gone"))
		skills.On("ListForUser", ctx, owner).Return([]model.Skill{}, nil)

		_, err := newProfileTestService(profiles, skills, store).UploadAvatar(ctx, owner, body)
		require.NoError(t, err)
		profiles.AssertExpectations(t)
		store.AssertExpectations(t)
	})
}

func TestProfileService_RemoveAvatar(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	profiles, store := &MockProfileRepo{}, &MockStore{}
	profiles.On("Get", ctx, owner).Return(&model.Profile{ID: owner, AvatarPath: "a.png"}, nil)
	store.On("Remove", ctx, "avatars", "a.png").Return(nil)
	profiles.On("Upsert", ctx, mock.MatchedBy(func(p *model.Profile) bool { return p.AvatarPath == "" }), []string{"avatar_path"}).Return(nil)

	require.NoError(t, newProfileTestService(profiles, &MockSkillRepo{}, store).RemoveAvatar(ctx, owner))
	profiles.AssertExpectations(t)
	store.AssertExpectations(t)
}
