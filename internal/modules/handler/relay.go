package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/artel-team/artel/internal/push"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	PushSecretHeader = "x-push-secret"
	maxRelayBody     = 64 << 10
)

// RelayHandler forwards topic notifications to the push gateway. Every answer
// is plain text except the gateway's own JSON on success.
type RelayHandler struct {
	secret string
	sender push.Sender
	// saErr is why no sender could be built; requests fail with 500 while set.
	saErr error
	log   *zap.Logger
}

func NewRelayHandler(secret string, sender push.Sender, saErr error, log *zap.Logger) *RelayHandler {
	return &RelayHandler{secret: secret, sender: sender, saErr: saErr, log: log}
}

// Send godoc
//
//	@Summary		Send a push notification to a topic
//	@Description	Authenticated with the x-push-secret header. Upstream failures are returned verbatim with 502.
//	@Tags			relay
//	@Accept			json
//	@Produce		json
//	@Param			x-push-secret	header	string				true	"Shared secret"
//	@Param			payload			body	push.Notification	true	"Notification"
//	@Success		200
//	@Failure		400	{string}	string
//	@Failure		401	{string}	string
//	@Failure		405	{string}	string
//	@Failure		502	{string}	string
//	@Router			/ [post]
func (h *RelayHandler) Send(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if !h.authorized(c.GetHeader(PushSecretHeader)) {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRelayBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid JSON")
		return
	}
	var n push.Notification
	if err := sonic.Unmarshal(raw, &n); err != nil {
		c.String(http.StatusBadRequest, "Invalid JSON")
		return
	}
	h.log.Info("push called", zap.String("topic", n.Topic), zap.String("title", n.Title))
	if !n.Valid() {
		c.String(http.StatusBadRequest, "Missing fields: topic/title/body")
		return
	}

	if h.saErr != nil || h.sender == nil {
		c.String(http.StatusInternalServerError, push.ErrServiceAccountIncomplete.Error())
		return
	}

	body, err := h.sender.Send(c.Request.Context(), n)
	if err != nil {
		status, msg := relayFailure(err)
		h.log.Warn("push relay failed", zap.String("topic", n.Topic), zap.Int("status", status), zap.Error(err))
		c.String(status, msg)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (h *RelayHandler) authorized(got string) bool {
	if h.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func relayFailure(err error) (int, string) {
	var upstream *push.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Error()
	case errors.Is(err, push.ErrNoAccessToken):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, push.ErrInvalidPrivateKey):
		return http.StatusInternalServerError, push.ErrInvalidPrivateKey.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream timeout"
	default:
		return http.StatusBadGateway, "Upstream request failed: " + err.Error()
	}
}
