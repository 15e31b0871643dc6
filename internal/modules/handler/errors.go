package handler

import (
	"errors"
	"net/http"

	"github.com/artel-team/artel/internal/middleware"
	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// writeServiceErr maps service sentinels to HTTP statuses. Unknown errors are 500.
func writeServiceErr(c *gin.Context, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr(msg))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr(msg))
	case errors.Is(err, service.ErrInvitationExists),
		errors.Is(err, service.ErrChatExists),
		errors.Is(err, service.ErrInvitationProcessed),
		errors.Is(err, service.ErrOwnProject),
		errors.Is(err, service.ErrAlreadyResponded):
		c.JSON(http.StatusConflict, serializer.ConflictErr(msg))
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrSelfInvite),
		errors.Is(err, service.ErrNotImage):
		c.JSON(http.StatusBadRequest, serializer.ParamErr(msg, nil))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, serializer.AuthErr(msg))
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, serializer.Err(http.StatusTooManyRequests, msg, nil))
	default:
		res := serializer.DBErr("", err)
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			c.JSON(http.StatusInternalServerError, serializer.TrackedErrorResponse{Response: res, TraceID: sc.TraceID().String()})
			return
		}
		c.JSON(http.StatusInternalServerError, res)
	}
}

// currentUser reads the id set by middleware.UserAuth; a missing id answers 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
	}
	return id, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}
