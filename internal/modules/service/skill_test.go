package service

import (
	"context"
	"strings"
	"testing"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSkillService_SetUserSkills(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	tests := []struct {
		name    string
		ids     []int
		setup   func(*MockSkillRepo)
		wantErr error
	}{
		{
			name: "unknown id",
			ids:  []int{1, 2},
			setup: func(r *MockSkillRepo) {
				r.On("CountExisting", ctx, []int{1, 2}).Return(int64(1), nil)
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "clearing all skills skips the catalog check",
			ids:  nil,
			setup: func(r *MockSkillRepo) {
				r.On("ReplaceUserSkills", ctx, user, []int{}).Return(nil)
				r.On("ListForUser", ctx, user).Return([]model.Skill{}, nil)
			},
		},
		{
			name: "full replace",
			ids:  []int{5, 2, 5},
			setup: func(r *MockSkillRepo) {
				r.On("CountExisting", ctx, []int{2, 5}).Return(int64(2), nil)
				r.On("ReplaceUserSkills", ctx, user, []int{2, 5}).Return(nil)
				r.On("ListForUser", ctx, user).Return([]model.Skill{{ID: 2, Name: "Figma"}, {ID: 5, Name: "Go"}}, nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockSkillRepo{}
			tt.setup(r)
			_, err := NewSkillService(r, nil).SetUserSkills(ctx, user, tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			r.AssertExpectations(t)
		})
	}
}

func TestSkillService_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("valid catalog", func(t *testing.T) {
		r := &MockSkillRepo{}
		r.On("UpsertByName", ctx, mock.MatchedBy(func(ss []model.Skill) bool {
			return len(ss) == 2 && ss[0].Name == "Go" && ss[1].Category == model.SkillDesign
		})).Return(int64(2), nil)

		n, err := NewSkillService(r, nil).Seed(ctx, strings.NewReader(`
skills:
  - { name: " Go ", category: programming }
  - { name: Figma, category: design }
`))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		r.AssertExpectations(t)
	})

	t.Run("bad category", func(t *testing.T) {
		r := &MockSkillRepo{}
		_, err := NewSkillService(r, nil).Seed(ctx, strings.NewReader("skills:\n  - { name: Go, category: cooking }\n"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		r.AssertNotCalled(t, "UpsertByName", mock.Anything, mock.Anything)
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := NewSkillService(&MockSkillRepo{}, nil).Seed(ctx, strings.NewReader("skills: [unterminated"))
		assert.Error(t, err)
	})
}
