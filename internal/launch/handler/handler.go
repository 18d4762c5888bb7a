package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/sse"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/middleware"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler
type Handlers struct {
	Auth     *AuthHandler
	Product  *ProductHandler
	Activity *ActivityHandler
	Template *TemplateHandler
	User     *UserHandler
	GS1      *GS1Handler
	Export   *ExportHandler
	SSE      *SSEHandler
	Health   *HealthHandler
}

// NewHandlers creates the handler set
func NewHandlers(svc *service.Services, hub *sse.Hub, health *HealthHandler, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth),
		Product:  NewProductHandler(svc.Product, svc.Activity),
		Activity: NewActivityHandler(svc.Activity),
		Template: NewTemplateHandler(svc.Template),
		User:     NewUserHandler(svc.User),
		GS1:      NewGS1Handler(svc.GS1),
		Export:   NewExportHandler(svc.Export),
		SSE:      NewSSEHandler(hub, logger),
		Health:   health,
	}
}

// Response is the JSON envelope of every API reply
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse is the data of a paged list
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination describes a page
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success writes a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error response. The HTTP status is code / 100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func Unavailable(c *gin.Context, message string) {
	Error(c, 50300, message)
}

// Fail maps a service error onto an error response
func Fail(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrTradeItemNotFound),
		errors.Is(err, service.ErrSubscriptionGone):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidGTIN),
		errors.Is(err, service.ErrInvalidWeek),
		errors.Is(err, service.ErrNoRetailers),
		errors.Is(err, service.ErrInvalidProductType),
		errors.Is(err, service.ErrInvalidTemplate),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmptyComment),
		errors.Is(err, service.ErrInvalidUserInput),
		errors.Is(err, service.ErrUnknownAuthMethod),
		errors.Is(err, service.ErrAuthMethodDisabled),
		errors.Is(err, service.ErrMissingAuthCode):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrProtectedRole):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrStorageDisabled),
		errors.Is(err, service.ErrGS1Disabled):
		Unavailable(c, err.Error())
	default:
		InternalError(c, action+" failed: "+err.Error())
	}
}

// GetUserID returns the authenticated user's id
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page and page_size, defaulting to 1 and 20
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// ============================================================
// Health
// ============================================================

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness, readiness and build info
type HealthHandler struct {
	version   string
	buildTime string
	checks    map[string]HealthCheck
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(version, buildTime string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, buildTime: buildTime, checks: checks}
}

// Live GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	result := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": result})
}

// Version GET /version
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    h.version,
		"build_time": h.buildTime,
	})
}

// RegisterRoutes mounts the API on r
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/version", h.Health.Version)

	r.NoRoute(func(c *gin.Context) {
		NotFound(c, "Not found")
	})

	v1 := r.Group("/api/v1")
	{
		// no login required
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/methods", h.Auth.Methods)
			auth.GET("/authorize", h.Auth.Authorize)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtSecret))
		{
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.GET("/events", h.SSE.Stream)

			products := authorized.Group("/products")
			{
				products.GET("", h.Product.List)
				products.POST("", h.Product.Create)
				products.GET("/:id", h.Product.Get)
				products.PUT("/:id", h.Product.Update)
				products.DELETE("/:id", h.Product.Delete)
				products.PUT("/:id/status", h.Product.SetStatus)
				products.GET("/:id/activities", h.Product.ListActivities)
			}

			activities := authorized.Group("/activities")
			{
				activities.PUT("/:id", h.Activity.Update)
				activities.POST("/:id/comments", h.Activity.AddComment)
				activities.GET("/:id/ics", h.Activity.ICS)
			}
			authorized.GET("/my/activities", h.Activity.ListMine)

			templates := authorized.Group("/templates")
			{
				templates.GET("", h.Template.List)
				templates.GET("/:id", h.Template.Get)
				templates.POST("", middleware.RequireRole(service.AdminRoleCode), h.Template.Create)
				templates.DELETE("/:id", middleware.RequireRole(service.AdminRoleCode), h.Template.Delete)
				templates.PUT("/:id/entries", middleware.RequireRole(service.AdminRoleCode), h.Template.ReplaceEntries)
				templates.POST("/:id/default", middleware.RequireRole(service.AdminRoleCode), h.Template.SetDefault)
			}

			admin := authorized.Group("")
			admin.Use(middleware.RequireRole(service.AdminRoleCode))
			{
				admin.GET("/users", h.User.List)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:id", h.User.Delete)
				admin.POST("/users/:id/roles", h.User.AssignRole)
				admin.DELETE("/users/:id/roles/:roleId", h.User.RemoveRole)

				admin.GET("/roles", h.User.ListRoles)
				admin.POST("/roles", h.User.CreateRole)
				admin.PUT("/roles/:id", h.User.UpdateRole)
				admin.DELETE("/roles/:id", h.User.DeleteRole)

				admin.GET("/groups", h.User.ListGroups)
				admin.POST("/groups", h.User.CreateGroup)
				admin.PUT("/groups/:id", h.User.UpdateGroup)
				admin.DELETE("/groups/:id", h.User.DeleteGroup)
				admin.POST("/groups/:id/members", h.User.AddMember)
				admin.DELETE("/groups/:id/members/:userId", h.User.RemoveMember)
				admin.POST("/groups/:id/roles", h.User.AddGroupRole)
				admin.DELETE("/groups/:id/roles/:roleId", h.User.RemoveGroupRole)

				admin.POST("/auth/sync-groups", h.Auth.SyncGroups)
			}

			gs1 := authorized.Group("/gs1")
			{
				gs1.GET("/items/:gtin", h.GS1.Lookup)
				gs1.POST("/validate", h.GS1.Validate)
				gs1.POST("/search", h.GS1.Search)
				gs1.GET("/subscriptions", h.GS1.ListSubscriptions)
				gs1.POST("/subscriptions", h.GS1.Subscribe)
				gs1.DELETE("/subscriptions/:id", h.GS1.Unsubscribe)
			}

			exports := authorized.Group("/exports")
			{
				exports.GET("/products.xlsx", h.Export.Download)
				exports.POST("/products", h.Export.Archive)
			}
		}
	}
}
