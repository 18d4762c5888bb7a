package repository

import (
	"context"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository stores roles
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a RoleRepository
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns roles ordered by code
func (r *RoleRepository) List(ctx context.Context) ([]entity.Role, error) {
	var roles []entity.Role
	err := r.db.WithContext(ctx).Order("code ASC").Find(&roles).Error
	return roles, err
}

// FindByID loads a role
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// FindByCode loads a role by code
func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// Create inserts a role
func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// EnsureCodes inserts roles whose code is not present yet
func (r *RoleRepository) EnsureCodes(ctx context.Context, roles []entity.Role) error {
	if len(roles) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&roles).Error
}

// Update saves a role
func (r *RoleRepository) Update(ctx context.Context, role *entity.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

// Delete removes a role and detaches it from users and groups
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM group_roles WHERE role_id = ?", id).Error; err != nil {
		return err
	}
	res := db.Delete(&entity.Role{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
