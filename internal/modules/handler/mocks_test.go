package handler

import (
	"context"
	"io"

	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/middleware"
	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/artel-team/artel/internal/push"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// setupRouter returns a test engine that authenticates every request as userID.
func setupRouter(userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	r := gin.New()
	if userID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CtxUserID, userID)
			c.Set(middleware.CtxUser, &gotrue.Identity{ID: userID, Email: "ann@example.com", FullName: "Ann"})
			c.Set(middleware.CtxAccessToken, "access-token")
			c.Next()
		})
	}
	return r
}

type MockProfileService struct{ mock.Mock }

func (m *MockProfileService) Get(ctx context.Context, id uuid.UUID) (*service.ProfileView, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*service.ProfileView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) Upsert(ctx context.Context, owner uuid.UUID, in service.UpsertProfileInput) (*service.ProfileView, error) {
	args := m.Called(ctx, owner, in)
	if v := args.Get(0); v != nil {
		return v.(*service.ProfileView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) ListSeeking(ctx context.Context, viewer uuid.UUID, roles []string, skillIDs []int) ([]service.ProfileView, error) {
	args := m.Called(ctx, viewer, roles, skillIDs)
	return args.Get(0).([]service.ProfileView), args.Error(1)
}

func (m *MockProfileService) UploadAvatar(ctx context.Context, owner uuid.UUID, body []byte) (*service.ProfileView, error) {
	args := m.Called(ctx, owner, body)
	if v := args.Get(0); v != nil {
		return v.(*service.ProfileView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) RemoveAvatar(ctx context.Context, owner uuid.UUID) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *MockProfileService) EnsureProfile(ctx context.Context, id uuid.UUID, fullName string) error {
	return m.Called(ctx, id, fullName).Error(0)
}

type MockSkillService struct{ mock.Mock }

func (m *MockSkillService) List(ctx context.Context) ([]model.Skill, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Skill), args.Error(1)
}

func (m *MockSkillService) GetUserSkills(ctx context.Context, userID uuid.UUID) ([]model.Skill, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Skill), args.Error(1)
}

func (m *MockSkillService) SetUserSkills(ctx context.Context, userID uuid.UUID, ids []int) ([]model.Skill, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).([]model.Skill), args.Error(1)
}

func (m *MockSkillService) Seed(ctx context.Context, r io.Reader) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

type MockProjectService struct{ mock.Mock }

func (m *MockProjectService) Create(ctx context.Context, owner uuid.UUID, in service.ProjectInput) (*service.ProjectView, error) {
	args := m.Called(ctx, owner, in)
	if v := args.Get(0); v != nil {
		return v.(*service.ProjectView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, owner, id uuid.UUID, in service.ProjectInput) (*service.ProjectView, error) {
	args := m.Called(ctx, owner, id, in)
	if v := args.Get(0); v != nil {
		return v.(*service.ProjectView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *MockProjectService) UploadImage(ctx context.Context, owner, id uuid.UUID, body []byte) (*service.ProjectView, error) {
	args := m.Called(ctx, owner, id, body)
	if v := args.Get(0); v != nil {
		return v.(*service.ProjectView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, viewer uuid.UUID, f service.ProjectFilter) ([]service.ProjectView, error) {
	args := m.Called(ctx, viewer, f)
	return args.Get(0).([]service.ProjectView), args.Error(1)
}

func (m *MockProjectService) Board(ctx context.Context, viewer uuid.UUID, f service.ProjectFilter) ([]service.BoardItem, error) {
	args := m.Called(ctx, viewer, f)
	return args.Get(0).([]service.BoardItem), args.Error(1)
}

func (m *MockProjectService) Respond(ctx context.Context, viewer, id uuid.UUID) (*model.Invitation, error) {
	args := m.Called(ctx, viewer, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockInvitationService struct{ mock.Mock }

func (m *MockInvitationService) Send(ctx context.Context, in service.SendInvitationInput) (*model.Invitation, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*model.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationService) ListIncoming(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]service.InvitationView, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]service.InvitationView), args.Error(1)
}

func (m *MockInvitationService) ListOutgoing(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]service.InvitationView, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]service.InvitationView), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, recipient, id uuid.UUID) (*model.Chat, error) {
	args := m.Called(ctx, recipient, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationService) Reject(ctx context.Context, recipient, id uuid.UUID) error {
	return m.Called(ctx, recipient, id).Error(0)
}

func (m *MockInvitationService) ReconcileResponses(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockInvitationService) ReconcileAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockChatService struct{ mock.Mock }

func (m *MockChatService) List(ctx context.Context, userID uuid.UUID) ([]service.ChatView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]service.ChatView), args.Error(1)
}

func (m *MockChatService) Messages(ctx context.Context, userID uuid.UUID, in service.ListMessagesInput) (*service.ListMessagesOutput, error) {
	args := m.Called(ctx, userID, in)
	if v := args.Get(0); v != nil {
		return v.(*service.ListMessagesOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) Send(ctx context.Context, userID, chatID uuid.UUID, text string) (*model.Message, error) {
	args := m.Called(ctx, userID, chatID, text)
	if v := args.Get(0); v != nil {
		return v.(*model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	return m.Called(ctx, userID, chatID).Error(0)
}

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) result(args mock.Arguments) (*service.AuthResult, error) {
	if v := args.Get(0); v != nil {
		return v.(*service.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, fullName string, dev *push.Device) (*service.AuthResult, error) {
	return m.result(m.Called(ctx, email, password, fullName, dev))
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string, dev *push.Device) (*service.AuthResult, error) {
	return m.result(m.Called(ctx, email, password, dev))
}

func (m *MockAuthService) SendOTP(ctx context.Context, email string, createUser bool) error {
	return m.Called(ctx, email, createUser).Error(0)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, email, token, typ string, dev *push.Device) (*service.AuthResult, error) {
	return m.result(m.Called(ctx, email, token, typ, dev))
}

func (m *MockAuthService) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, dev *push.Device) (*service.AuthResult, error) {
	return m.result(m.Called(ctx, refreshToken, dev))
}

func (m *MockAuthService) SignOut(ctx context.Context, accessToken string, dev *push.Device) (*push.SyncResult, error) {
	args := m.Called(ctx, accessToken, dev)
	if v := args.Get(0); v != nil {
		return v.(*push.SyncResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) UpdateUser(ctx context.Context, accessToken string, userID uuid.UUID, fullName, password *string) (*gotrue.Identity, error) {
	args := m.Called(ctx, accessToken, userID, fullName, password)
	if v := args.Get(0); v != nil {
		return v.(*gotrue.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) StartOAuth(ctx context.Context, provider string) (*service.OAuthStart, error) {
	args := m.Called(ctx, provider)
	if v := args.Get(0); v != nil {
		return v.(*service.OAuthStart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) CompleteCallback(ctx context.Context, rawURL, flowID string, dev *push.Device) (*service.AuthResult, error) {
	return m.result(m.Called(ctx, rawURL, flowID, dev))
}

type MockTopicSyncer struct{ mock.Mock }

func (m *MockTopicSyncer) Sync(ctx context.Context, dev push.Device, userID string) push.SyncResult {
	return m.Called(ctx, dev, userID).Get(0).(push.SyncResult)
}
