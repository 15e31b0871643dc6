package handler

import (
	"net/http"

	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(s service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: s}
}

type ProjectReq struct {
	Title    string   `json:"title" binding:"required,max=200" example:"Habit tracker"`
	Roles    []string `json:"roles" binding:"omitempty,dive,role" example:"android,design"`
	SkillIDs []int    `json:"skill_ids" example:"2,5"`
}

func (r ProjectReq) input() service.ProjectInput {
	return service.ProjectInput{Title: r.Title, Roles: r.Roles, SkillIDs: r.SkillIDs}
}

type ProjectFilterReq struct {
	Roles    []string `form:"roles" json:"roles" binding:"omitempty,dive,role"`
	SkillIDs []int    `form:"skill_ids" json:"skill_ids"`
}

func (r ProjectFilterReq) filter() service.ProjectFilter {
	return service.ProjectFilter{Roles: r.Roles, SkillIDs: r.SkillIDs}
}

// CreateProject godoc
//
//	@Summary	Create project
//	@Tags		project
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.ProjectReq	true	"Project"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=service.ProjectView}
//	@Router		/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := ProjectReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	p, err := h.svc.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: p})
}

// UpdateProject godoc
//
//	@Summary		Update project
//	@Description	Owner only. Required skills are fully replaced.
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string				true	"Project ID"	Format(uuid)
//	@Param			payload	body	handler.ProjectReq	true	"Project"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ProjectView}
//	@Router			/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	req := ProjectReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	p, err := h.svc.Update(c.Request.Context(), userID, id, req.input())
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// DeleteProject godoc
//
//	@Summary	Delete project
//	@Tags		project
//	@Produce	json
//	@Param		id	path	string	true	"Project ID"	Format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

// UploadProjectImage godoc
//
//	@Summary	Upload project cover
//	@Tags		project
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"Project ID"	Format(uuid)
//	@Param		file	formData	file	true	"Image file"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=service.ProjectView}
//	@Router		/projects/{id}/image [post]
func (h *ProjectHandler) UploadProjectImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	body, ok := readImage(c)
	if !ok {
		return
	}
	p, err := h.svc.UploadImage(c.Request.Context(), userID, id, body)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// ListProjects godoc
//
//	@Summary		List projects
//	@Description	Own projects first, then others, each newest first. Filters match on role or skill overlap.
//	@Tags			project
//	@Produce		json
//	@Param			roles		query	[]string	false	"Role tags"	collectionFormat(multi)
//	@Param			skill_ids	query	[]int		false	"Skill ids"	collectionFormat(multi)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.ProjectView}
//	@Router			/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := ProjectFilterReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.svc.List(c.Request.Context(), userID, req.filter())
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// Board godoc
//
//	@Summary		Project board
//	@Description	Projects with the caller's responded, has_chat and invite_pending flags.
//	@Tags			project
//	@Produce		json
//	@Param			roles		query	[]string	false	"Role tags"	collectionFormat(multi)
//	@Param			skill_ids	query	[]int		false	"Skill ids"	collectionFormat(multi)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.BoardItem}
//	@Router			/projects/board [get]
func (h *ProjectHandler) Board(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req := ProjectFilterReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.svc.Board(c.Request.Context(), userID, req.filter())
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// Respond godoc
//
//	@Summary		Respond to a project
//	@Description	Sends an invitation to the project owner and records the response.
//	@Tags			project
//	@Produce		json
//	@Param			id	path	string	true	"Project ID"	Format(uuid)
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Invitation}
//	@Failure		409	{object}	serializer.Response{}
//	@Router			/projects/{id}/respond [post]
func (h *ProjectHandler) Respond(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Respond(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: inv})
}
