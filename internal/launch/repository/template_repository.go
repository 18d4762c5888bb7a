package repository

import (
	"context"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateRepository stores activity templates
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a TemplateRepository
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func orderEntries(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// List returns every template with entries
func (r *TemplateRepository) List(ctx context.Context) ([]entity.ActivityTemplate, error) {
	var templates []entity.ActivityTemplate
	err := r.db.WithContext(ctx).
		Preload("Entries", orderEntries).
		Order("product_type ASC, is_default DESC, name ASC").
		Find(&templates).Error
	return templates, err
}

// Count returns the number of templates
func (r *TemplateRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ActivityTemplate{}).Count(&n).Error
	return n, err
}

// FindByID loads a template with entries
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.ActivityTemplate, error) {
	var tmpl entity.ActivityTemplate
	err := r.db.WithContext(ctx).
		Preload("Entries", orderEntries).
		Where("id = ?", id).
		First(&tmpl).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tmpl, nil
}

// FindDefault returns the default template for a product type, or the oldest
// template of that type when none is flagged.
func (r *TemplateRepository) FindDefault(ctx context.Context, productType schedule.ProductType) (*entity.ActivityTemplate, error) {
	var tmpl entity.ActivityTemplate
	err := r.db.WithContext(ctx).
		Preload("Entries", orderEntries).
		Where("product_type = ?", productType).
		Order("is_default DESC, created_at ASC").
		First(&tmpl).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tmpl, nil
}

// Create inserts a template and its entries
func (r *TemplateRepository) Create(ctx context.Context, tmpl *entity.ActivityTemplate) error {
	return r.db.WithContext(ctx).Create(tmpl).Error
}

// Update saves the template's own columns
func (r *TemplateRepository) Update(ctx context.Context, tmpl *entity.ActivityTemplate) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(tmpl).Error
}

// ReplaceEntries swaps a template's entries
func (r *TemplateRepository) ReplaceEntries(ctx context.Context, templateID string, entries []entity.TemplateEntry) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("template_id = ?", templateID).Delete(&entity.TemplateEntry{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return db.Create(&entries).Error
}

// Delete removes a template and its entries
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("template_id = ?", id).Delete(&entity.TemplateEntry{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&entity.ActivityTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefault flags one template as default and clears the flag on the others of its type
func (r *TemplateRepository) SetDefault(ctx context.Context, id string, productType schedule.ProductType) error {
	db := r.db.WithContext(ctx)
	err := db.Model(&entity.ActivityTemplate{}).
		Where("product_type = ? AND id <> ?", productType, id).
		Update("is_default", false).Error
	if err != nil {
		return err
	}
	return db.Model(&entity.ActivityTemplate{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}
