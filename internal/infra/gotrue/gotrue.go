// Package gotrue adapts the hosted auth provider (GoTrue / Supabase Auth) to
// the small surface the API needs.
package gotrue

import (
	"context"
	"errors"
	"strings"

	"github.com/artel-team/artel/internal/config"
	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

var ErrNotConfigured = errors.New("auth provider not configured")

type Identity struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name,omitempty"`
}

type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         Identity `json:"user"`
}

// Provider is what the session manager needs from the auth backend.
type Provider interface {
	// SignUp returns a nil session when the account still needs confirming.
	SignUp(ctx context.Context, email, password, fullName string) (*Session, *Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SendOTP(ctx context.Context, email string, createUser bool) error
	VerifyOTP(ctx context.Context, email, token, typ string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUser(ctx context.Context, accessToken string, fullName, password *string) (*Identity, error)
	GetUser(ctx context.Context, accessToken string) (*Identity, error)
	// Authorize starts a PKCE OAuth flow and returns the URL to open plus the verifier to keep.
	Authorize(ctx context.Context, provider string) (authURL, verifier string, err error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
}

type client struct {
	base auth.Client
}

func New(cfg *config.Config) (Provider, error) {
	if cfg.Auth.URL == "" && cfg.Auth.ProjectReference == "" {
		return nil, ErrNotConfigured
	}
	c := auth.New(cfg.Auth.ProjectReference, cfg.Auth.AnonKey)
	if cfg.Auth.URL != "" {
		c = c.WithCustomAuthURL(strings.TrimRight(cfg.Auth.URL, "/"))
	}
	return &client{base: c}, nil
}

func identity(u types.User) Identity {
	id := Identity{ID: u.ID, Email: u.Email}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		id.FullName = name
	}
	return id
}

func session(s types.Session) *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User:         identity(s.User),
	}
}

func (c *client) SignUp(_ context.Context, email, password, fullName string) (*Session, *Identity, error) {
	resp, err := c.base.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"full_name": fullName},
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Session.AccessToken != "" {
		s := session(resp.Session)
		return s, &s.User, nil
	}
	id := identity(resp.User)
	return nil, &id, nil
}

func (c *client) SignInWithPassword(_ context.Context, email, password string) (*Session, error) {
	resp, err := c.base.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}
	return session(resp.Session), nil
}

func (c *client) SendOTP(_ context.Context, email string, createUser bool) error {
	return c.base.OTP(types.OTPRequest{Email: email, CreateUser: createUser})
}

func (c *client) VerifyOTP(_ context.Context, email, token, typ string) (*Session, error) {
	resp, err := c.base.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationType(typ),
		Token: token,
		Email: email,
	})
	if err != nil {
		return nil, err
	}
	return session(resp.Session), nil
}

func (c *client) SendPasswordReset(_ context.Context, email string) error {
	return c.base.Recover(types.RecoverRequest{Email: email})
}

func (c *client) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	resp, err := c.base.RefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return session(resp.Session), nil
}

func (c *client) SignOut(_ context.Context, accessToken string) error {
	return c.base.WithToken(accessToken).Logout()
}

func (c *client) UpdateUser(_ context.Context, accessToken string, fullName, password *string) (*Identity, error) {
	req := types.UpdateUserRequest{Password: password}
	if fullName != nil {
		req.Data = map[string]interface{}{"full_name": *fullName}
	}
	resp, err := c.base.WithToken(accessToken).UpdateUser(req)
	if err != nil {
		return nil, err
	}
	id := identity(resp.User)
	return &id, nil
}

func (c *client) GetUser(_ context.Context, accessToken string) (*Identity, error) {
	resp, err := c.base.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, err
	}
	id := identity(resp.User)
	return &id, nil
}

func (c *client) Authorize(_ context.Context, provider string) (string, string, error) {
	resp, err := c.base.Authorize(types.AuthorizeRequest{
		Provider: types.Provider(provider),
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return "", "", err
	}
	return resp.AuthorizationURL, resp.Verifier, nil
}

func (c *client) ExchangeCode(_ context.Context, code, verifier string) (*Session, error) {
	resp, err := c.base.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, err
	}
	return session(resp.Session), nil
}
