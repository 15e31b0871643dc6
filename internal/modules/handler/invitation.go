package handler

import (
	"context"
	"net/http"

	"github.com/artel-team/artel/internal/modules/model"
	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvitationHandler struct {
	svc service.InvitationService
}

func NewInvitationHandler(s service.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: s}
}

type SendInvitationReq struct {
	ToUser uuid.UUID `json:"to_user" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// SendInvitation godoc
//
//	@Summary		Invite a user to chat
//	@Description	Refused when a chat with the user already exists or a pending invitation was already sent.
//	@Tags			invitation
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.SendInvitationReq	true	"Recipient"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Invitation}
//	@Failure		409	{object}	serializer.Response{}
//	@Router			/invitations [post]
func (h *InvitationHandler) SendInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := SendInvitationReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	inv, err := h.svc.Send(c.Request.Context(), service.SendInvitationInput{From: userID, To: req.ToUser})
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: inv})
}

type ListInvitationsReq struct {
	Status string `form:"status" json:"status" binding:"omitempty,oneof=pending accepted rejected" example:"pending"`
}

// ListIncoming godoc
//
//	@Summary	Incoming invitations
//	@Tags		invitation
//	@Produce	json
//	@Param		status	query	string	false	"pending (default), accepted or rejected"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]service.InvitationView}
//	@Router		/invitations/incoming [get]
func (h *InvitationHandler) ListIncoming(c *gin.Context) {
	h.list(c, h.svc.ListIncoming)
}

// ListOutgoing godoc
//
//	@Summary	Outgoing invitations
//	@Tags		invitation
//	@Produce	json
//	@Param		status	query	string	false	"pending (default), accepted or rejected"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]service.InvitationView}
//	@Router		/invitations/outgoing [get]
func (h *InvitationHandler) ListOutgoing(c *gin.Context) {
	h.list(c, h.svc.ListOutgoing)
}

type listInvitationsFunc func(ctx context.Context, userID uuid.UUID, status model.InvitationStatus) ([]service.InvitationView, error)

func (h *InvitationHandler) list(c *gin.Context, fetch listInvitationsFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := ListInvitationsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := fetch(c.Request.Context(), userID, model.InvitationStatus(req.Status))
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// AcceptInvitation godoc
//
//	@Summary		Accept invitation
//	@Description	Marks the invitation accepted and opens the chat in one step.
//	@Tags			invitation
//	@Produce		json
//	@Param			id	path	string	true	"Invitation ID"	Format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Chat}
//	@Failure		403	{object}	serializer.Response{}
//	@Failure		409	{object}	serializer.Response{}
//	@Router			/invitations/{id}/accept [post]
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	chat, err := h.svc.Accept(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: chat})
}

// RejectInvitation godoc
//
//	@Summary	Reject invitation
//	@Tags		invitation
//	@Produce	json
//	@Param		id	path	string	true	"Invitation ID"	Format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/invitations/{id}/reject [post]
func (h *InvitationHandler) RejectInvitation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reject(c.Request.Context(), userID, id); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

// ReconcileResponses godoc
//
//	@Summary		Clean up stale project responses
//	@Description	Drops the caller's responses whose invitation and chat never materialized. Returns the affected project ids.
//	@Tags			invitation
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]string}
//	@Router			/me/responses/reconcile [post]
func (h *InvitationHandler) ReconcileResponses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ids, err := h.svc.ReconcileResponses(c.Request.Context(), userID)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: ids})
}
