package repository

import (
	"context"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository stores groups with their members and roles
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a GroupRepository
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups with members and roles
func (r *GroupRepository) List(ctx context.Context) ([]entity.Group, error) {
	var groups []entity.Group
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Roles").
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}

// FindByID loads a group with members and roles
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*entity.Group, error) {
	var group entity.Group
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Roles").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

// FindByExternalID loads a directory group by its source and directory id
func (r *GroupRepository) FindByExternalID(ctx context.Context, source, externalID string) (*entity.Group, error) {
	var group entity.Group
	err := r.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&group).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

// ListBySource returns the groups of one source without associations
func (r *GroupRepository) ListBySource(ctx context.Context, source string) ([]entity.Group, error) {
	var groups []entity.Group
	err := r.db.WithContext(ctx).Where("source = ?", source).Order("name ASC").Find(&groups).Error
	return groups, err
}

// Create inserts a group
func (r *GroupRepository) Create(ctx context.Context, group *entity.Group) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(group).Error
}

// Update saves the group's own columns
func (r *GroupRepository) Update(ctx context.Context, group *entity.Group) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(group).Error
}

// Delete removes a group and its links
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	group := entity.Group{ID: id}
	if err := db.Model(&group).Association("Members").Clear(); err != nil {
		return err
	}
	if err := db.Model(&group).Association("Roles").Clear(); err != nil {
		return err
	}
	res := db.Delete(&entity.Group{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember links a user to a group
func (r *GroupRepository) AddMember(ctx context.Context, groupID string, user *entity.User) error {
	return r.db.WithContext(ctx).Model(&entity.Group{ID: groupID}).Association("Members").Append(user)
}

// RemoveMember unlinks a user from a group
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID string, user *entity.User) error {
	return r.db.WithContext(ctx).Model(&entity.Group{ID: groupID}).Association("Members").Delete(user)
}

// AddRole links a role to a group
func (r *GroupRepository) AddRole(ctx context.Context, groupID string, role *entity.Role) error {
	return r.db.WithContext(ctx).Model(&entity.Group{ID: groupID}).Association("Roles").Append(role)
}

// RemoveRole unlinks a role from a group
func (r *GroupRepository) RemoveRole(ctx context.Context, groupID string, role *entity.Role) error {
	return r.db.WithContext(ctx).Model(&entity.Group{ID: groupID}).Association("Roles").Delete(role)
}
