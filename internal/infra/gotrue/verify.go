package gotrue

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims is the subset of the access token payload the API reads.
type Claims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier resolves a bearer token to an identity. With a JWT secret the
// token is checked locally (HS256); otherwise, or when the local check is
// inconclusive, the provider is asked.
type Verifier struct {
	secret   []byte
	provider Provider
}

func NewVerifier(secret string, provider Provider) *Verifier {
	v := &Verifier{provider: provider}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if v.secret != nil {
		id, err := v.verifyLocal(token)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenSignatureInvalid) || v.provider == nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if v.provider == nil {
		return nil, ErrNotConfigured
	}
	id, err := v.provider.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}

func (v *Verifier) verifyLocal(token string) (*Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject is not a user id: %w", err)
	}
	out := &Identity{ID: id, Email: claims.Email}
	if name, ok := claims.UserMetadata["full_name"].(string); ok {
		out.FullName = name
	}
	return out, nil
}
