package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebsocketServer upgrades a request into a realtime connection for userID.
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type RealtimeHandler struct {
	hub WebsocketServer
}

func NewRealtimeHandler(hub WebsocketServer) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect godoc
//
//	@Summary		Realtime change notifications
//	@Description	Websocket. Send {"type":"subscribe","table":"messages","filter":"chat_id=eq.<id>"} and receive invalidate frames.
//	@Tags			realtime
//	@Param			access_token	query	string	false	"Access token when the Authorization header cannot be set"
//	@Security		BearerAuth
//	@Success		101
//	@Router			/realtime [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	// a failed upgrade has already been answered by the upgrader
	if err := h.hub.ServeWS(c.Writer, c.Request, userID.String()); err != nil {
		_ = c.Error(err)
	}
}
