package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestWriteServiceErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrRecipientNotFound, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvitationExists, http.StatusConflict},
		{service.ErrChatExists, http.StatusConflict},
		{service.ErrInvitationProcessed, http.StatusConflict},
		{service.ErrOwnProject, http.StatusConflict},
		{service.ErrAlreadyResponded, http.StatusConflict},
		{fmt.Errorf("%w: title is required", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrSelfInvite, http.StatusBadRequest},
		{service.ErrNotImage, http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceErr(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestWriteServiceErr_IncludesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	writeServiceErr(c, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
}
