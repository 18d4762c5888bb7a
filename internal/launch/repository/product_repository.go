package repository

import (
	"context"
	"strings"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository stores products with their retailers and activities
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a ProductRepository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilter narrows List
type ProductFilter struct {
	Status      string
	ProductType string
	Keyword     string // name or GTIN
}

func orderRetailers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// orderActivities keeps a product's activities in generation order
func orderActivities(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, sort_order ASC")
}

func orderByDeadline(db *gorm.DB) *gorm.DB {
	return db.Order("deadline ASC, position ASC")
}

// FindByID loads a product with retailers and activities
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Preload("Retailers", orderRetailers).
		Preload("Activities", orderActivities).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// Create inserts a product together with its retailers and activities
func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves the product's own columns
func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

// UpdateStatus sets only the status column
func (r *ProductRepository) UpdateStatus(ctx context.Context, id string, status schedule.ProductStatus) error {
	return r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ReplaceRetailers swaps the product's retailer rows
func (r *ProductRepository) ReplaceRetailers(ctx context.Context, productID string, retailers []entity.ProductRetailer) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&entity.ProductRetailer{}).Error; err != nil {
		return err
	}
	if len(retailers) == 0 {
		return nil
	}
	return db.Create(&retailers).Error
}

// Delete removes a product, its retailers, activities and comments.
// Call inside Repositories.Transaction to make it atomic.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	activityIDs := db.Model(&entity.Activity{}).Select("id").Where("product_id = ?", id)
	if err := db.Where("activity_id IN (?)", activityIDs).Delete(&entity.ActivityComment{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&entity.Activity{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&entity.ProductRetailer{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&entity.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of products, newest first, with retailers and activities loaded
func (r *ProductRepository) List(ctx context.Context, page, pageSize int, filter ProductFilter) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{})

	if filter.Keyword != "" {
		kw := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR gtin LIKE ?", kw, kw)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProductType != "" {
		query = query.Where("product_type = ?", filter.ProductType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Retailers", orderRetailers).
		Preload("Activities", orderActivities).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&products).Error

	return products, total, err
}

// ListForExport loads products by id, or all products when ids is empty,
// ordered by launch year and week, with activity comments.
func (r *ProductRepository) ListForExport(ctx context.Context, ids []string) ([]entity.Product, error) {
	var products []entity.Product
	query := r.db.WithContext(ctx).
		Preload("Retailers", orderRetailers).
		Preload("Activities", orderActivities).
		Preload("Activities.Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err := query.Order("launch_year ASC, launch_week ASC, name ASC").Find(&products).Error
	return products, err
}
