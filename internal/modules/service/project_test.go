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

type projectMocks struct {
	projects    *MockProjectRepo
	skills      *MockSkillRepo
	responses   *MockResponseRepo
	chats       *MockChatRepo
	invitations *MockInvitationRepo
	store       *MockStore
}

func newProjectMocks() projectMocks {
	return projectMocks{
		projects:    &MockProjectRepo{},
		skills:      &MockSkillRepo{},
		responses:   &MockResponseRepo{},
		chats:       &MockChatRepo{},
		invitations: &MockInvitationRepo{},
		store:       &MockStore{},
	}
}

var fixedNow = time.Unix(1767225600, 0)

func (m projectMocks) service() ProjectService {
	s := NewProjectService(m.projects, m.skills, m.responses, m.chats, m.invitations, nil, m.store, "project_images", nil, zap.NewNop())
	s.(*projectService).now = func() time.Time { return fixedNow }
	return s
}

func (m projectMocks) assert(t *testing.T) {
	m.projects.AssertExpectations(t)
	m.skills.AssertExpectations(t)
	m.responses.AssertExpectations(t)
	m.chats.AssertExpectations(t)
	m.invitations.AssertExpectations(t)
	m.store.AssertExpectations(t)
}

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name    string
		in      ProjectInput
		setup   func(projectMocks)
		wantErr error
	}{
		{
			name:    "empty title",
			in:      ProjectInput{Title: "   "},
			setup:   func(projectMocks) {},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown role",
			in:      ProjectInput{Title: "Rover", Roles: []string{"wizard"}},
			setup:   func(projectMocks) {},
			wantErr: ErrInvalidInput,
		},
		{
			name: "unknown skill",
			in:   ProjectInput{Title: "Rover", SkillIDs: []int{1, 99}},
			setup: func(m projectMocks) {
				m.skills.On("CountExisting", ctx, []int{1, 99}).Return(int64(1), nil)
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "created with deduplicated skills",
			in:   ProjectInput{Title: " Rover ", Roles: []string{"backend", "backend", "ios"}, SkillIDs: []int{3, 1, 3}},
			setup: func(m projectMocks) {
				m.skills.On("CountExisting", ctx, []int{1, 3}).Return(int64(2), nil)
				m.projects.On("Create", ctx, mock.MatchedBy(func(p *model.Project) bool {
					return p.OwnerID == owner && p.Title == "Rover" && len(p.RequiredRoles) == 2
				}), []int{1, 3}).Return(nil)
				m.skills.On("ListForProjects", ctx, mock.Anything).Return(map[uuid.UUID][]model.Skill{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newProjectMocks()
			tt.setup(m)

			v, err := m.service().Create(ctx, owner, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Rover", v.Title)
				assert.NotNil(t, v.Skills)
			}
			m.assert(t)
		})
	}
}

func TestProjectService_DeleteRemovesImageFirst(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()

	t.Run("not owner", func(t *testing.T) {
		m := newProjectMocks()
		m.projects.On("Get", ctx, id).Return(&model.Project{ID: id, OwnerID: uuid.New()}, nil)
		assert.ErrorIs(t, m.service().Delete(ctx, owner, id), ErrForbidden)
		m.assert(t)
	})

	t.Run("missing", func(t *testing.T) {
		m := newProjectMocks()
		m.projects.On("Get", ctx, id).Return(nil, gorm.ErrRecordNotFound)
		assert.ErrorIs(t, m.service().Delete(ctx, owner, id), ErrNotFound)
		m.assert(t)
	})

	t.Run("image removal failure keeps the row", func(t *testing.T) {
		m := newProjectMocks()
		m.projects.On("Get", ctx, id).Return(&model.Project{ID: id, OwnerID: owner, ImagePath: "p/cover_1.jpg"}, nil)
		m.store.On("Remove", ctx, "project_images", "p/cover_1.jpg").Return(errors.New("s3 down"))
		assert.Error(t, m.service().Delete(ctx, owner, id))
		m.projects.AssertNotCalled(t, "Delete", ctx, id)
		m.assert(t)
	})

	t.Run("deleted", func(t *testing.T) {
		m := newProjectMocks()
		var order []string
		m.projects.On("Get", ctx, id).Return(&model.Project{ID: id, OwnerID: owner, ImagePath: "p/cover_1.jpg"}, nil)
		m.store.On("Remove", ctx, "project_images", "p/cover_1.jpg").Run(func(mock.Arguments) { order = append(order, "image") }).Return(nil)
		m.projects.On("Delete", ctx, id).Run(func(mock.Arguments) { order = append(order, "row") }).Return(nil)
		require.NoError(t, m.service().Delete(ctx, owner, id))
		assert.Equal(t, []string{"image", "row"}, order)
		m.assert(t)
	})
}

func TestProjectService_UploadImage(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	id := uuid.New()
	body := []byte("fake-jpeg")
	prefix := id.String() + "/cover_1767225600"

	t.Run("not an image", func(t *testing.T) {
		m := newProjectMocks()
		m.projects.On("Get", ctx, id).Return(&model.Project{ID: id, OwnerID: owner}, nil)
		m.store.On("UploadImage", ctx, "project_images", prefix, body).Return(nil, blob.ErrNotImage)
		_, err := m.service().UploadImage(ctx, owner, id, body)
		assert.ErrorIs(t, err, ErrNotImage)
		m.assert(t)
	})

	t.Run("replaces the previous cover", func(t *testing.T) {
		m := newProjectMocks()
		m.projects.On("Get", ctx, id).Return(&model.Project{ID: id, OwnerID: owner, ImagePath: "old.png"}, nil)
		m.store.On("UploadImage", ctx, "project_images", prefix, body).
			Return(&blob.UploadedMeta{Bucket: "project_images", Key: prefix + ".jpg", MIME: "image/jpeg", Extension: ".jpg"}, nil)
		m.projects.On("UpdateImagePath", ctx, id, prefix+".jpg").Return(nil)
		m.store.On("Remove", ctx, "project_images", "old.png").Return(nil)
		m.skills.On("ListForProjects", ctx, []uuid.UUID{id}).Return(map[uuid.UUID][]model.Skill{}, nil)

		v, err := m.service().UploadImage(ctx, owner, id, body)
		require.NoError(t, err)
		assert.Equal(t, prefix+".jpg", v.ImagePath)
		assert.Equal(t, "https://cdn.test/project_images/"+prefix+".jpg", v.ImageURL)
		m.assert(t)
	})
}

func TestProjectService_Board(t *testing.T) {
	ctx := context.Background()
	me, ownerA, ownerB := uuid.New(), uuid.New(), uuid.New()
	mine, pA, pB := uuid.New(), uuid.New(), uuid.New()

	m := newProjectMocks()
	m.projects.On("List", mock.Anything, me, []string(nil), []int{}).Return([]model.Project{
		{ID: mine, OwnerID: me, Title: "Mine"},
		{ID: pA, OwnerID: ownerA, Title: "A"},
		{ID: pB, OwnerID: ownerB, Title: "B"},
	}, nil)
	m.skills.On("ListForProjects", mock.Anything, []uuid.UUID{mine, pA, pB}).Return(map[uuid.UUID][]model.Skill{
		pA: {{ID: 1, Name: "Go", Category: model.SkillProgramming}},
	}, nil)
	m.responses.On("ListByUser", mock.Anything, me).Return([]model.ProjectResponse{{ProjectID: pA, UserID: me}}, nil)
	m.chats.On("Counterparts", mock.Anything, me).Return([]uuid.UUID{ownerA}, nil)
	m.invitations.On("PendingRecipients", mock.Anything, me).Return([]uuid.UUID{ownerB}, nil)

	items, err := m.service().Board(ctx, me, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.True(t, items[0].Own)
	assert.False(t, items[0].Responded)

	assert.True(t, items[1].Responded)
	assert.True(t, items[1].HasChat)
	assert.False(t, items[1].InvitePending)
	assert.Len(t, items[1].Skills, 1)

	assert.False(t, items[2].Responded)
	assert.False(t, items[2].HasChat)
	assert.True(t, items[2].InvitePending)
	m.assert(t)
}

func TestProjectService_Board_PropagatesErrors(t *testing.T) {
	ctx := context.Background()
	me := uuid.New()

	m := newProjectMocks()
	m.projects.On("List", mock.Anything, me, []string(nil), []int{}).Return([]model.Project{}, nil)
	m.skills.On("ListForProjects", mock.Anything, []uuid.UUID{}).Return(map[uuid.UUID][]model.Skill{}, nil)
	m.responses.On("ListByUser", mock.Anything, me).Return(nil, errors.New("db down"))
	m.chats.On("Counterparts", mock.Anything, me).Return([]uuid.UUID{}, nil).Maybe()
	m.invitations.On("PendingRecipients", mock.Anything, me).Return([]uuid.UUID{}, nil).Maybe()

	_, err := m.service().Board(ctx, me, ProjectFilter{})
	assert.EqualError(t, err, "db down")
}

func TestProjectService_RespondRefusals(t *testing.T) {
	ctx := context.Background()
	me, owner := uuid.New(), uuid.New()
	id := uuid.New()
	project := &model.Project{ID: id, OwnerID: owner, Title: "Rover"}

	tests := []struct {
		name    string
		setup   func(projectMocks)
		wantErr error
	}{
		{
			name: "chat checked first",
			setup: func(m projectMocks) {
				m.chats.On("ExistsForPair", ctx, me, owner).Return(true, nil)
			},
			wantErr: ErrChatExists,
		},
		{
			name: "then pending invite",
			setup: func(m projectMocks) {
				m.chats.On("ExistsForPair", ctx, me, owner).Return(false, nil)
				m.invitations.On("HasPending", ctx, me, owner).Return(true, nil)
			},
			wantErr: ErrInvitationExists,
		},
		{
			name: "then existing response",
			setup: func(m projectMocks) {
				m.chats.On("ExistsForPair", ctx, me, owner).Return(false, nil)
				m.invitations.On("HasPending", ctx, me, owner).Return(false, nil)
				m.responses.On("Exists", ctx, id, me).Return(true, nil)
			},
			wantErr: ErrAlreadyResponded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newProjectMocks()
			m.projects.On("Get", ctx, id).Return(project, nil)
			tt.setup(m)
			_, err := m.service().Respond(ctx, me, id)
			assert.ErrorIs(t, err, tt.wantErr)
			m.assert(t)
		})
	}
}
