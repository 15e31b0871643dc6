package push

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/artel-team/artel/internal/infra/httpclient"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
)

const (
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL   = time.Hour
	// refresh a little before the upstream expiry
	tokenSkew = time.Minute
)

var (
	ErrNoAccessToken     = errors.New("No access_token in response")
	ErrInvalidPrivateKey = errors.New("Service account private_key is not a valid RSA key")
)

// UpstreamError carries a non-2xx upstream answer verbatim.
type UpstreamError struct {
	Stage  string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error: %d %s", e.Stage, e.Status, e.Body)
}

// Permanent reports whether retrying the same request cannot help.
func (e *UpstreamError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != 429
}

// TokenSource exchanges a signed service assertion for an OAuth2 access token
// and caches it until shortly before it expires.
type TokenSource struct {
	sa   *ServiceAccount
	http *httpclient.Client
	now  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(sa *ServiceAccount, hc *httpclient.Client) *TokenSource {
	return &TokenSource{sa: sa, http: hc, now: time.Now}
}

// Assertion builds the RS256 JWT presented to the token endpoint.
func (s *TokenSource) Assertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.sa.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	iat := s.now()
	claims := jwt.MapClaims{
		"iss":   s.sa.ClientEmail,
		"scope": MessagingScope,
		"aud":   s.sa.TokenURI,
		"iat":   iat.Unix(),
		"exp":   iat.Add(assertionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	assertion, err := s.Assertion()
	if err != nil {
		return "", err
	}
	resp, err := s.http.PostForm(ctx, s.sa.TokenURI, url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &UpstreamError{Stage: "OAuth token", Status: resp.Status, Body: string(resp.Body)}
	}

	var tr tokenResponse
	if err := sonic.Unmarshal(resp.Body, &tr); err != nil || tr.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl <= tokenSkew {
		// no usable lifetime; do not cache
		return tr.AccessToken, nil
	}
	s.token = tr.AccessToken
	s.expires = s.now().Add(ttl - tokenSkew)
	return s.token, nil
}
