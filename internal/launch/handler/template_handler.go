package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

// TemplateHandler serves activity templates
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler creates a TemplateHandler
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		Fail(c, "list templates", err)
		return
	}
	Success(c, gin.H{"items": templates})
}

// Get GET /api/v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.svc.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "load template", err)
		return
	}
	Success(c, tmpl)
}

// Create POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tmpl, err := h.svc.CreateTemplate(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		Fail(c, "create template", err)
		return
	}
	Created(c, tmpl)
}

type entriesRequest struct {
	Entries []schedule.TemplateEntry `json:"entries"`
}

// ReplaceEntries PUT /api/v1/templates/:id/entries
func (h *TemplateHandler) ReplaceEntries(c *gin.Context) {
	var req entriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tmpl, err := h.svc.ReplaceEntries(c.Request.Context(), c.Param("id"), req.Entries)
	if err != nil {
		Fail(c, "update template", err)
		return
	}
	Success(c, tmpl)
}

// Delete DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "delete template", err)
		return
	}
	Success(c, nil)
}

// SetDefault POST /api/v1/templates/:id/default
func (h *TemplateHandler) SetDefault(c *gin.Context) {
	if err := h.svc.SetDefault(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "set default template", err)
		return
	}
	Success(c, nil)
}
