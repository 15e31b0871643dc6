package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artel-team/artel/internal/infra/cache"
	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/push"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionObserver reacts to sessions starting and ending.
type SessionObserver interface {
	SessionStarted(ctx context.Context, user gotrue.Identity, dev *push.Device) *push.SyncResult
	SessionEnded(ctx context.Context, dev *push.Device) *push.SyncResult
}

type sessionObserver struct {
	profiles ProfileService
	syncer   *push.TopicSyncer
	log      *zap.Logger
}

func NewSessionObserver(profiles ProfileService, syncer *push.TopicSyncer, log *zap.Logger) SessionObserver {
	return &sessionObserver{profiles: profiles, syncer: syncer, log: log}
}

func (o *sessionObserver) SessionStarted(ctx context.Context, user gotrue.Identity, dev *push.Device) *push.SyncResult {
	if err := o.profiles.EnsureProfile(ctx, user.ID, user.FullName); err != nil {
		o.log.Warn("ensure profile", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	if dev == nil || o.syncer == nil {
		return nil
	}
	res := o.syncer.Sync(ctx, *dev, user.ID.String())
	return &res
}

func (o *sessionObserver) SessionEnded(ctx context.Context, dev *push.Device) *push.SyncResult {
	if dev == nil || o.syncer == nil {
		return nil
	}
	res := o.syncer.Sync(ctx, *dev, "")
	return &res
}

type AuthResult struct {
	Session *gotrue.Session  `json:"session,omitempty"`
	User    *gotrue.Identity `json:"user,omitempty"`
	// ConfirmationRequired is set when sign-up succeeded but the email must be verified first.
	ConfirmationRequired bool            `json:"confirmation_required"`
	Push                 *push.SyncResult `json:"push,omitempty"`
}

type OAuthStart struct {
	URL    string `json:"url"`
	FlowID string `json:"flow_id"`
}

type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string, dev *push.Device) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string, dev *push.Device) (*AuthResult, error)
	SendOTP(ctx context.Context, email string, createUser bool) error
	VerifyOTP(ctx context.Context, email, token, typ string, dev *push.Device) (*AuthResult, error)
	SendPasswordReset(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string, dev *push.Device) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string, dev *push.Device) (*push.SyncResult, error)
	UpdateUser(ctx context.Context, accessToken string, userID uuid.UUID, fullName, password *string) (*gotrue.Identity, error)
	StartOAuth(ctx context.Context, provider string) (*OAuthStart, error)
	// CompleteCallback finishes a sign-in from the deep link the provider redirected to.
	CompleteCallback(ctx context.Context, rawURL, flowID string, dev *push.Device) (*AuthResult, error)
}

var oauthProviders = map[string]struct{}{
	"google": {}, "github": {}, "apple": {}, "gitlab": {}, "discord": {},
}

var otpTypes = map[string]struct{}{
	"signup": {}, "recovery": {}, "email": {}, "magiclink": {}, "invite": {}, "email_change": {},
}

type authService struct {
	provider gotrue.Provider
	observer SessionObserver
	profiles ProfileService
	rdb      *redis.Client
	flowTTL  time.Duration
	log      *zap.Logger
}

func NewAuthService(provider gotrue.Provider, observer SessionObserver, profiles ProfileService, rdb *redis.Client, flowTTL time.Duration, log *zap.Logger) AuthService {
	if flowTTL <= 0 {
		flowTTL = 10 * time.Minute
	}
	return &authService{provider: provider, observer: observer, profiles: profiles, rdb: rdb, flowTTL: flowTTL, log: log}
}

// authFailure wraps provider errors so handlers answer 401 instead of 500.
func authFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrUnauthorized, err)
}

func (s *authService) started(ctx context.Context, sess *gotrue.Session, dev *push.Device) *AuthResult {
	return &AuthResult{
		Session: sess,
		User:    &sess.User,
		Push:    s.observer.SessionStarted(ctx, sess.User, dev),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return email, nil
}

func (s *authService) SignUp(ctx context.Context, email, password, fullName string, dev *push.Device) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if password == "" || fullName == "" {
		return nil, fmt.Errorf("%w: password and full_name are required", ErrInvalidInput)
	}
	sess, user, err := s.provider.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, authFailure(err)
	}
	if sess == nil {
		return &AuthResult{User: user, ConfirmationRequired: true}, nil
	}
	if sess.User.FullName == "" {
		sess.User.FullName = fullName
	}
	return s.started(ctx, sess, dev), nil
}

func (s *authService) SignIn(ctx context.Context, email, password string, dev *push.Device) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, authFailure(err)
	}
	return s.started(ctx, sess, dev), nil
}

func (s *authService) SendOTP(ctx context.Context, email string, createUser bool) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.provider.SendOTP(ctx, email, createUser); err != nil {
		return authFailure(err)
	}
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, email, token, typ string, dev *push.Device) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		typ = "email"
	}
	if _, ok := otpTypes[typ]; !ok || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: bad otp type or token", ErrInvalidInput)
	}
	sess, err := s.provider.VerifyOTP(ctx, email, strings.TrimSpace(token), typ)
	if err != nil {
		return nil, authFailure(err)
	}
	return s.started(ctx, sess, dev), nil
}

func (s *authService) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return authFailure(err)
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string, dev *push.Device) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", ErrInvalidInput)
	}
	sess, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, authFailure(err)
	}
	return s.started(ctx, sess, dev), nil
}

func (s *authService) SignOut(ctx context.Context, accessToken string, dev *push.Device) (*push.SyncResult, error) {
	// the device leaves the user's topic even when the provider call fails
	res := s.observer.SessionEnded(ctx, dev)
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return res, authFailure(err)
	}
	return res, nil
}

func (s *authService) UpdateUser(ctx context.Context, accessToken string, userID uuid.UUID, fullName, password *string) (*gotrue.Identity, error) {
	if fullName != nil {
		name := strings.TrimSpace(*fullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name must not be empty", ErrInvalidInput)
		}
		fullName = &name
	}
	if password != nil && *password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
	}
	if fullName == nil && password == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	id, err := s.provider.UpdateUser(ctx, accessToken, fullName, password)
	if err != nil {
		return nil, authFailure(err)
	}
	if fullName != nil {
		if _, err := s.profiles.Upsert(ctx, userID, UpsertProfileInput{FullName: fullName}); err != nil {
			s.log.Warn("mirror full_name to profile", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return id, nil
}

type oauthFlow struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

func flowKey(id string) string { return cache.Key("oauth", "flow", id) }

func (s *authService) StartOAuth(ctx context.Context, provider string) (*OAuthStart, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if _, ok := oauthProviders[provider]; !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidInput, provider)
	}
	authURL, verifier, err := s.provider.Authorize(ctx, provider)
	if err != nil {
		return nil, authFailure(err)
	}
	flowID := uuid.NewString()
	if err := cache.PutJSON(ctx, s.rdb, flowKey(flowID), oauthFlow{Provider: provider, Verifier: verifier}, s.flowTTL); err != nil {
		return nil, fmt.Errorf("store oauth flow: %w", err)
	}
	return &OAuthStart{URL: authURL, FlowID: flowID}, nil
}

// callbackParams merges query and fragment parameters; the fragment wins.
func callbackParams(rawURL string) (url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: callback url: %v", ErrInvalidInput, err)
	}
	params := u.Query()
	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return nil, fmt.Errorf("%w: callback fragment: %v", ErrInvalidInput, err)
		}
		for k, v := range frag {
			params[k] = v
		}
	}
	return params, nil
}

func (s *authService) CompleteCallback(ctx context.Context, rawURL, flowID string, dev *push.Device) (*AuthResult, error) {
	params, err := callbackParams(rawURL)
	if err != nil {
		return nil, err
	}

	if e := params.Get("error"); e != "" {
		desc := params.Get("error_description")
		if desc == "" {
			desc = e
		}
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, desc)
	}

	switch {
	case params.Get("code") != "":
		if flowID == "" {
			flowID = params.Get("flow_id")
		}
		if flowID == "" {
			return nil, fmt.Errorf("%w: flow_id is required for a code callback", ErrInvalidInput)
		}
		var flow oauthFlow
		if err := cache.TakeJSON(ctx, s.rdb, flowKey(flowID), &flow); err != nil {
			if errors.Is(err, cache.ErrMiss) {
				return nil, fmt.Errorf("%w: oauth flow expired or unknown", ErrInvalidInput)
			}
			return nil, err
		}
		sess, err := s.provider.ExchangeCode(ctx, params.Get("code"), flow.Verifier)
		if err != nil {
			return nil, authFailure(err)
		}
		return s.started(ctx, sess, dev), nil

	case params.Get("access_token") != "":
		sess := &gotrue.Session{
			AccessToken:  params.Get("access_token"),
			RefreshToken: params.Get("refresh_token"),
			TokenType:    params.Get("token_type"),
		}
		sess.ExpiresIn, _ = strconv.Atoi(params.Get("expires_in"))
		sess.ExpiresAt, _ = strconv.ParseInt(params.Get("expires_at"), 10, 64)
		user, err := s.provider.GetUser(ctx, sess.AccessToken)
		if err != nil {
			return nil, authFailure(err)
		}
		sess.User = *user
		return s.started(ctx, sess, dev), nil

	case params.Get("token") != "" && params.Get("type") == "recovery":
		return s.VerifyOTP(ctx, params.Get("email"), params.Get("token"), "recovery", dev)
	}
	return nil, fmt.Errorf("%w: callback carries no credentials", ErrInvalidInput)
}
