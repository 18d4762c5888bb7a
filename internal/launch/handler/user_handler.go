package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

// UserHandler serves user, role and group administration
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type roleIDRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

type userIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// List GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		Fail(c, "list users", err)
		return
	}
	Success(c, gin.H{"items": users})
}

// Create POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		Fail(c, "create user", err)
		return
	}
	Created(c, user)
}

// Delete DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == GetUserID(c) {
		BadRequest(c, "you cannot delete your own account")
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		Fail(c, "delete user", err)
		return
	}
	Success(c, nil)
}

// AssignRole POST /api/v1/users/:id/roles
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req roleIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.AssignRole(c.Request.Context(), c.Param("id"), req.RoleID); err != nil {
		Fail(c, "assign role", err)
		return
	}
	Success(c, nil)
}

// RemoveRole DELETE /api/v1/users/:id/roles/:roleId
func (h *UserHandler) RemoveRole(c *gin.Context) {
	if err := h.svc.RemoveRole(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
		Fail(c, "remove role", err)
		return
	}
	Success(c, nil)
}

// ============================================================
// Roles
// ============================================================

// ListRoles GET /api/v1/roles
func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		Fail(c, "list roles", err)
		return
	}
	Success(c, gin.H{"items": roles})
}

// CreateRole POST /api/v1/roles
func (h *UserHandler) CreateRole(c *gin.Context) {
	var req service.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := h.svc.CreateRole(c.Request.Context(), &req)
	if err != nil {
		Fail(c, "create role", err)
		return
	}
	Created(c, role)
}

// UpdateRole PUT /api/v1/roles/:id
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req service.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := h.svc.UpdateRole(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, "update role", err)
		return
	}
	Success(c, role)
}

// DeleteRole DELETE /api/v1/roles/:id
func (h *UserHandler) DeleteRole(c *gin.Context) {
	if err := h.svc.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "delete role", err)
		return
	}
	Success(c, nil)
}

// ============================================================
// Groups
// ============================================================

// ListGroups GET /api/v1/groups
func (h *UserHandler) ListGroups(c *gin.Context) {
	groups, err := h.svc.ListGroups(c.Request.Context())
	if err != nil {
		Fail(c, "list groups", err)
		return
	}
	Success(c, gin.H{"items": groups})
}

// CreateGroup POST /api/v1/groups
func (h *UserHandler) CreateGroup(c *gin.Context) {
	var req service.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	group, err := h.svc.CreateGroup(c.Request.Context(), &req)
	if err != nil {
		Fail(c, "create group", err)
		return
	}
	Created(c, group)
}

// UpdateGroup PUT /api/v1/groups/:id
func (h *UserHandler) UpdateGroup(c *gin.Context) {
	var req service.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	group, err := h.svc.UpdateGroup(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, "update group", err)
		return
	}
	Success(c, group)
}

// DeleteGroup DELETE /api/v1/groups/:id
func (h *UserHandler) DeleteGroup(c *gin.Context) {
	if err := h.svc.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "delete group", err)
		return
	}
	Success(c, nil)
}

// AddMember POST /api/v1/groups/:id/members
func (h *UserHandler) AddMember(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		Fail(c, "add member", err)
		return
	}
	Success(c, nil)
}

// RemoveMember DELETE /api/v1/groups/:id/members/:userId
func (h *UserHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		Fail(c, "remove member", err)
		return
	}
	Success(c, nil)
}

// AddGroupRole POST /api/v1/groups/:id/roles
func (h *UserHandler) AddGroupRole(c *gin.Context) {
	var req roleIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.AddGroupRole(c.Request.Context(), c.Param("id"), req.RoleID); err != nil {
		Fail(c, "add group role", err)
		return
	}
	Success(c, nil)
}

// RemoveGroupRole DELETE /api/v1/groups/:id/roles/:roleId
func (h *UserHandler) RemoveGroupRole(c *gin.Context) {
	if err := h.svc.RemoveGroupRole(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
		Fail(c, "remove group role", err)
		return
	}
	Success(c, nil)
}
