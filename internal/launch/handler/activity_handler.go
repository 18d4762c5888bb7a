package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

// ActivityHandler serves activity updates, comments and calendar files
type ActivityHandler struct {
	svc *service.ActivityService
}

// NewActivityHandler creates an ActivityHandler
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// Update PUT /api/v1/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	activity, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, "update activity", err)
		return
	}
	Success(c, activity)
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment POST /api/v1/activities/:id/comments
func (h *ActivityHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), c.Param("id"), GetUserID(c), c.GetString("user_name"), req.Text)
	if err != nil {
		Fail(c, "add comment", err)
		return
	}
	Created(c, comment)
}

// ICS GET /api/v1/activities/:id/ics
func (h *ActivityHandler) ICS(c *gin.Context) {
	data, filename, err := h.svc.ICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "render calendar", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "text/calendar; charset=utf-8", data)
}

// ListMine GET /api/v1/my/activities
func (h *ActivityHandler) ListMine(c *gin.Context) {
	activities, err := h.svc.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		Fail(c, "list activities", err)
		return
	}
	Success(c, gin.H{"items": activities})
}
