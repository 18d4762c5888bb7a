package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminRoleCode is the role that may manage users, roles, groups and templates.
const AdminRoleCode = "admin"

// SystemRoles are created at startup and cannot be deleted.
var SystemRoles = []entity.Role{
	{Code: AdminRoleCode, Name: "Administrator", Description: "Manages users, roles, groups and templates"},
	{Code: schedule.RoleMasterData, Name: "Master data", Description: "Article data and GS1/Validoo"},
	{Code: schedule.RoleKAM, Name: "Key account manager", Description: "Customer contact and listings"},
	{Code: schedule.RoleLogistics, Name: "Logistics", Description: "Forecast, stock and deliveries"},
}

// UserService manages users, roles and groups
type UserService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(repos *repository.Repositories, logger *zap.Logger) *UserService {
	return &UserService{repos: repos, logger: logger}
}

// CreateUserRequest creates a local account
type CreateUserRequest struct {
	Username  string   `json:"username" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email"`
	Password  string   `json:"password" binding:"required"`
	RoleCodes []string `json:"role_codes"`
}

// RoleRequest creates or updates a role
type RoleRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GroupRequest creates or updates a group
type GroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// =============================================================================
// Users
// =============================================================================

// ListUsers returns all users with their effective roles
func (s *UserService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.repos.User.List(ctx)
}

// GetUser loads one user
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.repos.User.FindByID(ctx, id)
}

// CreateUser creates a local user with a bcrypt password hash
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Name == "" || req.Password == "" {
		return nil, ErrInvalidUserInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		AuthMethod:   "local",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		for _, code := range req.RoleCodes {
			role, err := tx.Role.FindByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("role %s: %w", code, err)
			}
			if err := tx.User.AddRole(ctx, user.ID, role); err != nil {
				return fmt.Errorf("assign role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return s.repos.User.FindByID(ctx, user.ID)
}

// DeleteUser removes a user and unassigns its activities
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Activity.ClearAssignee(ctx, id); err != nil {
			return fmt.Errorf("unassign activities: %w", err)
		}
		return tx.User.Delete(ctx, id)
	})
}

// AssignRole gives a user a role directly
func (s *UserService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.repos.User.FindByID(ctx, userID); err != nil {
		return err
	}
	role, err := s.repos.Role.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	return s.repos.User.AddRole(ctx, userID, role)
}

// RemoveRole takes a direct role away from a user
func (s *UserService) RemoveRole(ctx context.Context, userID, roleID string) error {
	role, err := s.repos.Role.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	return s.repos.User.RemoveRole(ctx, userID, role)
}

// Roster returns active users as auto-assignment candidates, in creation order,
// each with the union of direct and group roles.
func (s *UserService) Roster(ctx context.Context) ([]schedule.Member, error) {
	users, err := s.repos.User.ListRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	members := make([]schedule.Member, 0, len(users))
	for _, u := range users {
		members = append(members, schedule.Member{ID: u.ID, Name: u.Name, Roles: u.RoleCodes})
	}
	return members, nil
}

// =============================================================================
// Roles
// =============================================================================

// EnsureSystemRoles creates the built-in roles that are missing
func (s *UserService) EnsureSystemRoles(ctx context.Context) error {
	now := time.Now()
	roles := make([]entity.Role, 0, len(SystemRoles))
	for _, r := range SystemRoles {
		r.ID = uuid.New().String()
		r.IsSystem = true
		r.CreatedAt = now
		r.UpdatedAt = now
		roles = append(roles, r)
	}
	return s.repos.Role.EnsureCodes(ctx, roles)
}

// ListRoles returns all roles
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.repos.Role.List(ctx)
}

// CreateRole adds a role
func (s *UserService) CreateRole(ctx context.Context, req *RoleRequest) (*entity.Role, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: role code is required", ErrInvalidUserInput)
	}
	now := time.Now()
	role := &entity.Role{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Role.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// UpdateRole renames a role. The code never changes.
func (s *UserService) UpdateRole(ctx context.Context, id string, req *RoleRequest) (*entity.Role, error) {
	role, err := s.repos.Role.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = req.Name
	role.Description = req.Description
	role.UpdatedAt = time.Now()
	if err := s.repos.Role.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a custom role from users, groups and the catalog
func (s *UserService) DeleteRole(ctx context.Context, id string) error {
	role, err := s.repos.Role.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrProtectedRole
	}
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Role.Delete(ctx, id)
	})
}

// =============================================================================
// Groups
// =============================================================================

// ListGroups returns groups with members and roles
func (s *UserService) ListGroups(ctx context.Context) ([]entity.Group, error) {
	return s.repos.Group.List(ctx)
}

// CreateGroup adds a group
func (s *UserService) CreateGroup(ctx context.Context, req *GroupRequest) (*entity.Group, error) {
	now := time.Now()
	group := &entity.Group{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Source:      entity.GroupSourceLocal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if group.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidUserInput)
	}
	if err := s.repos.Group.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

// UpdateGroup renames a group
func (s *UserService) UpdateGroup(ctx context.Context, id string, req *GroupRequest) (*entity.Group, error) {
	group, err := s.repos.Group.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	group.Name = req.Name
	group.Description = req.Description
	group.UpdatedAt = time.Now()
	if err := s.repos.Group.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group. Members keep their direct roles.
func (s *UserService) DeleteGroup(ctx context.Context, id string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Group.Delete(ctx, id)
	})
}

// AddMember puts a user into a group
func (s *UserService) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.repos.Group.FindByID(ctx, groupID); err != nil {
		return err
	}
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repos.Group.AddMember(ctx, groupID, &entity.User{ID: user.ID, Username: user.Username, Name: user.Name})
}

// RemoveMember takes a user out of a group
func (s *UserService) RemoveMember(ctx context.Context, groupID, userID string) error {
	return s.repos.Group.RemoveMember(ctx, groupID, &entity.User{ID: userID})
}

// AddGroupRole grants a role to every member of a group
func (s *UserService) AddGroupRole(ctx context.Context, groupID, roleID string) error {
	if _, err := s.repos.Group.FindByID(ctx, groupID); err != nil {
		return err
	}
	role, err := s.repos.Role.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	return s.repos.Group.AddRole(ctx, groupID, role)
}

// RemoveGroupRole revokes a group role
func (s *UserService) RemoveGroupRole(ctx context.Context, groupID, roleID string) error {
	return s.repos.Group.RemoveRole(ctx, groupID, &entity.Role{ID: roleID})
}
