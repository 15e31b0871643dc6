package handler

import (
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type SkillHandler struct {
	svc service.SkillService
}

func NewSkillHandler(s service.SkillService) *SkillHandler {
	return &SkillHandler{svc: s}
}

// ListSkills godoc
//
//	@Summary	List skill catalog
//	@Tags		skill
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.Skill}
//	@Router		/skills [get]
func (h *SkillHandler) ListSkills(c *gin.Context) {
	skills, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: skills})
}

// GetUserSkills godoc
//
//	@Summary	Get a user's skills
//	@Tags		skill
//	@Produce	json
//	@Param		id	path	string	true	"User ID"	Format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.Skill}
//	@Router		/profiles/{id}/skills [get]
func (h *SkillHandler) GetUserSkills(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	skills, err := h.svc.GetUserSkills(c.Request.Context(), id)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: skills})
}

type SetSkillsReq struct {
	SkillIDs []int `json:"skill_ids" binding:"max=50" example:"1,4,7"`
}

// SetMySkills godoc
//
//	@Summary		Replace own skills
//	@Description	The selection fully replaces the previous one. An empty list clears it.
//	@Tags			skill
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.SetSkillsReq	true	"Selected skill ids"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Skill}
//	@Router			/me/skills [put]
func (h *SkillHandler) SetMySkills(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := SetSkillsReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	skills, err := h.svc.SetUserSkills(c.Request.Context(), userID, req.SkillIDs)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: skills})
}
