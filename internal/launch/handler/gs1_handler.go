package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gs1"
)

// GS1Handler exposes GS1 lookups
type GS1Handler struct {
	svc *service.GS1Service
}

// NewGS1Handler creates a GS1Handler
func NewGS1Handler(svc *service.GS1Service) *GS1Handler {
	return &GS1Handler{svc: svc}
}

// Lookup GET /api/v1/gs1/items/:gtin
func (h *GS1Handler) Lookup(c *gin.Context) {
	item, err := h.svc.Lookup(c.Request.Context(), c.Param("gtin"))
	if err != nil {
		Fail(c, "gs1 lookup", err)
		return
	}
	Success(c, item)
}

type validateRequest struct {
	GTIN string `json:"gtin" binding:"required"`
}

// Validate POST /api/v1/gs1/validate
func (h *GS1Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	report, err := h.svc.Validate(c.Request.Context(), req.GTIN)
	if err != nil {
		Fail(c, "gs1 validation", err)
		return
	}
	Success(c, report)
}

// Search POST /api/v1/gs1/search
func (h *GS1Handler) Search(c *gin.Context) {
	var params map[string]interface{}
	if err := c.ShouldBindJSON(&params); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.svc.Search(c.Request.Context(), params)
	if err != nil {
		Fail(c, "gs1 search", err)
		return
	}
	Success(c, result)
}

type subscribeRequest struct {
	GTIN            string `json:"gtin"`
	BrandOwnerGLN   string `json:"brand_owner_gln"`
	TargetMarket    string `json:"target_market"`
	GPCCategoryCode string `json:"gpc_category_code"`
}

// Subscribe POST /api/v1/gs1/subscriptions
func (h *GS1Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.GTIN == "" && req.BrandOwnerGLN == "" {
		BadRequest(c, "gtin or brand_owner_gln is required")
		return
	}
	sub, err := h.svc.Subscribe(c.Request.Context(), gs1.Subscription{
		GTIN:            req.GTIN,
		BrandOwnerGLN:   req.BrandOwnerGLN,
		TargetMarket:    req.TargetMarket,
		GPCCategoryCode: req.GPCCategoryCode,
	})
	if err != nil {
		Fail(c, "gs1 subscribe", err)
		return
	}
	Created(c, sub)
}

// ListSubscriptions GET /api/v1/gs1/subscriptions
func (h *GS1Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.svc.Subscriptions(c.Request.Context())
	if err != nil {
		Fail(c, "list gs1 subscriptions", err)
		return
	}
	Success(c, subs)
}

// Unsubscribe DELETE /api/v1/gs1/subscriptions/:id
func (h *GS1Handler) Unsubscribe(c *gin.Context) {
	if err := h.svc.Unsubscribe(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "delete gs1 subscription", err)
		return
	}
	Success(c, nil)
}
