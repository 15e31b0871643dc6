package service

import (
	"context"
	"time"

	"github.com/artel-team/artel/internal/infra/blob"
	"github.com/artel-team/artel/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepo is a mock implementation of ProfileRepo
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Profile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockProfileRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepo) Upsert(ctx context.Context, p *model.Profile, columns []string) error {
	args := m.Called(ctx, p, columns)
	return args.Error(0)
}

func (m *MockProfileRepo) EnsureExists(ctx context.Context, id uuid.UUID, fullName string) error {
	args := m.Called(ctx, id, fullName)
	return args.Error(0)
}

func (m *MockProfileRepo) ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Profile, error) {
	args := m.Called(ctx, viewer, roles, skillIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

// MockSkillRepo is a mock implementation of SkillRepo
type MockSkillRepo struct {
	mock.Mock
}

func (m *MockSkillRepo) List(ctx context.Context) ([]model.Skill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Skill), args.Error(1)
}

func (m *MockSkillRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Skill, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Skill), args.Error(1)
}

func (m *MockSkillRepo) ListForProjects(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]model.Skill, error) {
	args := m.Called(ctx, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]model.Skill), args.Error(1)
}

func (m *MockSkillRepo) CountExisting(ctx context.Context, ids []int) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSkillRepo) ReplaceUserSkills(ctx context.Context, userID uuid.UUID, ids []int) error {
	args := m.Called(ctx, userID, ids)
	return args.Error(0)
}

func (m *MockSkillRepo) UpsertByName(ctx context.Context, skills []model.Skill) (int64, error) {
	args := m.Called(ctx, skills)
	return args.Get(0).(int64), args.Error(1)
}

// MockProjectRepo is a mock implementation of ProjectRepo
type MockProjectRepo struct {
	mock.Mock
}

func (m *MockProjectRepo) Create(ctx context.Context, p *model.Project, skillIDs []int) error {
	args := m.Called(ctx, p, skillIDs)
	return args.Error(0)
}

func (m *MockProjectRepo) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectRepo) Update(ctx context.Context, p *model.Project, skillIDs []int) error {
	args := m.Called(ctx, p, skillIDs)
	return args.Error(0)
}

func (m *MockProjectRepo) UpdateImagePath(ctx context.Context, id uuid.UUID, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}

func (m *MockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepo) List(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]model.Project, error) {
	args := m.Called(ctx, viewer, roles, skillIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockProjectRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.Project, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

// MockResponseRepo is a mock implementation of ResponseRepo
type MockResponseRepo struct {
	mock.Mock
}

func (m *MockResponseRepo) Create(ctx context.Context, projectID, userID uuid.UUID) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

func (m *MockResponseRepo) Exists(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResponseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProjectResponse), args.Error(1)
}

func (m *MockResponseRepo) Delete(ctx context.Context, projectID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepo) Responders(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockInvitationRepo is a mock implementation of InvitationRepo
type MockInvitationRepo struct {
	mock.Mock
}

func (m *MockInvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) HasPending(ctx context.Context, from, to uuid.UUID) (bool, error) {
	args := m.Called(ctx, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationRepo) ListIncoming(ctx context.Context, to uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error) {
	args := m.Called(ctx, to, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) ListOutgoing(ctx context.Context, from uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error) {
	args := m.Called(ctx, from, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockInvitationRepo) PendingRecipients(ctx context.Context, from uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockInvitationRepo) Reject(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvitationRepo) Accept(ctx context.Context, id uuid.UUID, chat *model.Chat) error {
	args := m.Called(ctx, id, chat)
	return args.Error(0)
}

// MockChatRepo is a mock implementation of ChatRepo
type MockChatRepo struct {
	mock.Mock
}

func (m *MockChatRepo) ExistsForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepo) Get(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockChatRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Chat), args.Error(1)
}

func (m *MockChatRepo) Counterparts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChatRepo) CreateMessage(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockChatRepo) ListMessages(ctx context.Context, chatID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Message, error) {
	args := m.Called(ctx, chatID, afterCreatedAt, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

// MockStore is a mock implementation of blob.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) UploadImage(ctx context.Context, bucket, keyPrefix string, body []byte) (*blob.UploadedMeta, error) {
	args := m.Called(ctx, bucket, keyPrefix, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.UploadedMeta), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockStore) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}
