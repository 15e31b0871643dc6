package handler

import (
	"context"
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/push"
	"github.com/gin-gonic/gin"
)

// TopicSyncer moves a device between per-user push topics.
type TopicSyncer interface {
	Sync(ctx context.Context, dev push.Device, userID string) push.SyncResult
}

type DeviceHandler struct {
	syncer TopicSyncer
}

func NewDeviceHandler(s TopicSyncer) *DeviceHandler {
	return &DeviceHandler{syncer: s}
}

// RegisterPush godoc
//
//	@Summary		Register device for push
//	@Description	Subscribes the device to the caller's topic and leaves any previous one.
//	@Tags			device
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	push.Device	true	"Device"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=push.SyncResult}
//	@Router			/devices/push [put]
func (h *DeviceHandler) RegisterPush(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	dev := push.Device{}
	if err := c.ShouldBindJSON(&dev); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	res := h.syncer.Sync(c.Request.Context(), dev, userID.String())
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

// UnregisterPush godoc
//
//	@Summary	Unregister device from push
//	@Tags		device
//	@Produce	json
//	@Param		token	path	string	true	"Device token"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=push.SyncResult}
//	@Router		/devices/push/{token} [delete]
func (h *DeviceHandler) UnregisterPush(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	res := h.syncer.Sync(c.Request.Context(), push.Device{Token: c.Param("token")}, "")
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}
