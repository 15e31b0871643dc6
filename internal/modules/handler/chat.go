package handler

import (
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{svc: s}
}

// ListChats godoc
//
//	@Summary	List chats
//	@Tags		chat
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]service.ChatView}
//	@Router		/chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

type ListMessagesReq struct {
	Limit  int    `form:"limit,default=50" json:"limit" binding:"min=1,max=200" example:"50"`
	Cursor string `form:"cursor" json:"cursor"`
}

// ListMessages godoc
//
//	@Summary		List messages
//	@Description	Oldest first. Pass next_cursor back to receive newer messages.
//	@Tags			chat
//	@Produce		json
//	@Param			id		path	string	true	"Chat ID"	Format(uuid)
//	@Param			limit	query	integer	false	"Page size, max 200"	default(50)
//	@Param			cursor	query	string	false	"Cursor from a previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListMessagesOutput}
//	@Router			/chats/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	req := ListMessagesReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	out, err := h.svc.Messages(c.Request.Context(), userID, service.ListMessagesInput{
		ChatID: id,
		Limit:  req.Limit,
		Cursor: req.Cursor,
	})
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

type SendMessageReq struct {
	Message string `json:"message" binding:"required" example:"hi!"`
}

// SendMessage godoc
//
//	@Summary	Send message
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		id		path	string					true	"Chat ID"	Format(uuid)
//	@Param		payload	body	handler.SendMessageReq	true	"Message"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Message}
//	@Failure	429	{object}	serializer.Response{}
//	@Router		/chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	req := SendMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	msg, err := h.svc.Send(c.Request.Context(), userID, id, req.Message)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: msg})
}

// DeleteChat godoc
//
//	@Summary		Delete chat
//	@Description	Removes the chat and all of its messages.
//	@Tags			chat
//	@Produce		json
//	@Param			id	path	string	true	"Chat ID"	Format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/chats/{id} [delete]
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
