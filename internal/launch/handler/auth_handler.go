package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

// AuthHandler serves login and token endpoints
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.AuthMethod != "azure" && (req.Username == "" || req.Password == "") {
		BadRequest(c, "username and password are required")
		return
	}
	res, err := h.svc.Authenticate(c.Request.Context(), &req)
	if err != nil {
		Fail(c, "login", err)
		return
	}
	Success(c, res)
}

// Refresh POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Fail(c, "refresh", err)
		return
	}
	Success(c, pair)
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		Fail(c, "logout", err)
		return
	}
	Success(c, nil)
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), GetUserID(c))
	if err != nil {
		Fail(c, "load user", err)
		return
	}
	Success(c, user)
}

// Methods GET /api/v1/auth/methods
func (h *AuthHandler) Methods(c *gin.Context) {
	Success(c, gin.H{"methods": h.svc.Methods()})
}

// Authorize GET /api/v1/auth/authorize?method=azure&redirect_uri=...
func (h *AuthHandler) Authorize(c *gin.Context) {
	url, state, err := h.svc.AuthorizeURL(c.DefaultQuery("method", "azure"), c.Query("redirect_uri"))
	if err != nil {
		Fail(c, "authorize", err)
		return
	}
	Success(c, gin.H{"url": url, "state": state})
}

type syncGroupsRequest struct {
	Method string `json:"method" binding:"required"`
}

// SyncGroups POST /api/v1/auth/sync-groups
func (h *AuthHandler) SyncGroups(c *gin.Context) {
	var req syncGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.SyncGroups(c.Request.Context(), req.Method)
	if err != nil {
		Fail(c, "sync groups", err)
		return
	}
	Success(c, res)
}
