package handler

import (
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc service.ProfileService
}

func NewProfileHandler(s service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: s}
}

// GetMyProfile godoc
//
//	@Summary		Get own profile
//	@Description	Returns the caller's profile with avatar URL and selected skills
//	@Tags			profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ProfileView}
//	@Router			/me/profile [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// GetProfile godoc
//
//	@Summary	Get profile
//	@Tags		profile
//	@Produce	json
//	@Param		id	path	string	true	"User ID"	Format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=service.ProfileView}
//	@Router		/profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

type UpsertProfileReq struct {
	FullName      *string   `json:"full_name" binding:"omitempty,max=200" example:"Ann Lee"`
	Bio           *string   `json:"bio" binding:"omitempty,max=2000"`
	Roles         *[]string `json:"roles" binding:"omitempty,dive,role" example:"backend,devops"`
	WantInProject *bool     `json:"want_in_project" example:"true"`
}

// UpsertMyProfile godoc
//
//	@Summary		Update own profile
//	@Description	Creates the profile on first write. Only provided fields change.
//	@Tags			profile
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.UpsertProfileReq	true	"Profile fields"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ProfileView}
//	@Router			/me/profile [put]
func (h *ProfileHandler) UpsertMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := UpsertProfileReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	p, err := h.svc.Upsert(c.Request.Context(), userID, service.UpsertProfileInput{
		FullName:      req.FullName,
		Bio:           req.Bio,
		Roles:         req.Roles,
		WantInProject: req.WantInProject,
	})
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

type ListSeekingReq struct {
	Roles    []string `form:"roles" json:"roles" binding:"omitempty,dive,role"`
	SkillIDs []int    `form:"skill_ids" json:"skill_ids"`
}

// ListSeeking godoc
//
//	@Summary		Browse people looking for a project
//	@Description	Profiles with want_in_project set, excluding the caller, newest first. Role and skill filters match on any overlap.
//	@Tags			profile
//	@Produce		json
//	@Param			roles		query	[]string	false	"Role tags"	collectionFormat(multi)
//	@Param			skill_ids	query	[]int		false	"Skill ids"	collectionFormat(multi)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.ProfileView}
//	@Router			/profiles [get]
func (h *ProfileHandler) ListSeeking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := ListSeekingReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.svc.ListSeeking(c.Request.Context(), userID, req.Roles, req.SkillIDs)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// UploadAvatar godoc
//
//	@Summary	Upload avatar
//	@Tags		profile
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Image file"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=service.ProfileView}
//	@Router		/me/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	body, ok := readImage(c)
	if !ok {
		return
	}
	p, err := h.svc.UploadAvatar(c.Request.Context(), userID, body)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// RemoveAvatar godoc
//
//	@Summary	Remove avatar
//	@Tags		profile
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/me/avatar [delete]
func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveAvatar(c.Request.Context(), userID); err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
