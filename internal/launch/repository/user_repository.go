package repository

import (
	"context"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository stores users and their direct roles
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func withRoles(db *gorm.DB) *gorm.DB {
	return db.Preload("Roles").Preload("Groups.Roles")
}

// FindByID loads a user with direct and group roles
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Scopes(withRoles).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	user.RoleCodes = user.EffectiveRoleCodes()
	return &user, nil
}

// FindByUsername loads a user by login name
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Scopes(withRoles).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	user.RoleCodes = user.EffectiveRoleCodes()
	return &user, nil
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

// Update saves the user's own columns
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

// Delete removes a user and its role and group links
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	user := entity.User{ID: id}
	if err := db.Model(&user).Association("Roles").Clear(); err != nil {
		return err
	}
	if err := db.Model(&user).Association("Groups").Clear(); err != nil {
		return err
	}
	res := db.Delete(&entity.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns users in creation order with roles loaded
func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Scopes(withRoles).
		Order("created_at ASC, id ASC").
		Find(&users).Error
	for i := range users {
		users[i].RoleCodes = users[i].EffectiveRoleCodes()
	}
	return users, err
}

// ListRoster returns active users in creation order with effective role codes filled in
func (r *UserRepository) ListRoster(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Scopes(withRoles).
		Where("status = ?", "active").
		Order("created_at ASC, id ASC").
		Find(&users).Error
	for i := range users {
		users[i].RoleCodes = users[i].EffectiveRoleCodes()
	}
	return users, err
}

// AddRole links a role to a user
func (r *UserRepository) AddRole(ctx context.Context, userID string, role *entity.Role) error {
	return r.db.WithContext(ctx).Model(&entity.User{ID: userID}).Association("Roles").Append(role)
}

// RemoveRole unlinks a role from a user
func (r *UserRepository) RemoveRole(ctx context.Context, userID string, role *entity.Role) error {
	return r.db.WithContext(ctx).Model(&entity.User{ID: userID}).Association("Roles").Delete(role)
}
