package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/artel-team/artel/internal/infra/cache"
	"github.com/artel-team/artel/internal/infra/gotrue"
	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	CtxUserID      = "user_id"
	CtxUser        = "user"
	CtxAccessToken = "access_token"
)

// TokenVerifier resolves a bearer token to the user it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*gotrue.Identity, error)
}

// ProfileEnsurer creates the profile row for a user seen for the first time.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, fullName string) error
}

// UserAuth authenticates requests with the auth provider's access tokens and
// sets the user id, identity and raw token in the context. The first request
// of a user within seenTTL makes sure their profile row exists.
func UserAuth(v TokenVerifier, profiles ProfileEnsurer, rdb *redis.Client, seenTTL time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, authSpan := otel.Tracer("middleware").Start(ctx, "user_auth",
			trace.WithAttributes(attribute.String("middleware", "user_auth")))

		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			// browsers cannot set headers on websocket upgrades
			raw = c.Query("access_token")
		}
		if raw == "" {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		user, err := v.Verify(ctx, raw)
		if err != nil {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		if profiles != nil {
			ensureProfile(ctx, user, profiles, rdb, seenTTL, log)
		}

		// Set user_id attribute on the current span for telemetry filtering
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.String("user_id", user.ID.String()))
		}

		authSpan.SetAttributes(
			attribute.String("user_id", user.ID.String()),
			attribute.Bool("authenticated", true),
		)
		authSpan.End()

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUser, user)
		c.Set(CtxAccessToken, raw)
		c.Next()
	}
}

func bearer(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tok, tok != ""
}

func ensureProfile(ctx context.Context, user *gotrue.Identity, profiles ProfileEnsurer, rdb *redis.Client, ttl time.Duration, log *zap.Logger) {
	key := cache.Key("profile", "seen", user.ID.String())
	marked := false
	if rdb != nil && ttl > 0 {
		first, err := cache.MarkOnce(ctx, rdb, key, ttl)
		if err != nil {
			log.Warn("profile seen flag", zap.Error(err))
		} else if !first {
			return
		}
		marked = err == nil
	}
	if err := profiles.EnsureProfile(ctx, user.ID, user.FullName); err != nil {
		log.Warn("ensure profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		// next request retries
		if marked {
			if err := rdb.Del(ctx, key).Err(); err != nil {
				log.Warn("clear profile seen flag", zap.Error(err))
			}
		}
	}
}

// UserID returns the authenticated user's id set by UserAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
