package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gtin"
	"go.uber.org/zap"
)

// ProductService creates products and keeps their schedule and status consistent
type ProductService struct {
	repos     *repository.Repositories
	users     *UserService
	catalog   *schedule.Catalog
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductService creates a ProductService. A nil catalog means the built-in one.
func NewProductService(repos *repository.Repositories, users *UserService, catalog *schedule.Catalog, publisher Publisher, logger *zap.Logger) *ProductService {
	if catalog == nil {
		catalog = schedule.BuiltinCatalog()
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ProductService{
		repos:     repos,
		users:     users,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RetailerInput is one chain's launch plan
type RetailerInput struct {
	Retailer    string `json:"retailer" binding:"required"`
	LaunchWeeks []int  `json:"launch_weeks"`
	LaunchYear  int    `json:"launch_year"`
}

// CreateProductRequest creates a product.
// LaunchWeek and LaunchYear are the fallback used for delisting or when no retailer week applies.
type CreateProductRequest struct {
	GTIN        string               `json:"gtin" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	Category    string               `json:"category"`
	ProductType schedule.ProductType `json:"product_type"`
	Retailers   []RetailerInput      `json:"retailers"`
	LaunchWeek  int                  `json:"launch_week"`
	LaunchYear  int                  `json:"launch_year"`
	TemplateID  string               `json:"template_id"`
}

// UpdateProductRequest edits a product. Nil fields are left alone.
type UpdateProductRequest struct {
	GTIN       *string          `json:"gtin"`
	Name       *string          `json:"name"`
	Category   *string          `json:"category"`
	Retailers  *[]RetailerInput `json:"retailers"`
	LaunchWeek *int             `json:"launch_week"`
	LaunchYear *int             `json:"launch_year"`
}

func (r *UpdateProductRequest) affectsSchedule() bool {
	return r.Retailers != nil || r.LaunchWeek != nil || r.LaunchYear != nil
}

func validateWeeks(fallbackWeek int, retailers []RetailerInput) error {
	if fallbackWeek != 0 && !schedule.ValidWeek(fallbackWeek) {
		return fmt.Errorf("%w: got %d", ErrInvalidWeek, fallbackWeek)
	}
	for _, r := range retailers {
		for _, w := range r.LaunchWeeks {
			if !schedule.ValidWeek(w) {
				return fmt.Errorf("%w: %s week %d", ErrInvalidWeek, r.Retailer, w)
			}
		}
	}
	return nil
}

// retailerRows turns input into rows in input order. Missing years default to defaultYear.
func retailerRows(productID string, in []RetailerInput, defaultYear int) []entity.ProductRetailer {
	rows := make([]entity.ProductRetailer, 0, len(in))
	for i, r := range in {
		year := r.LaunchYear
		if year == 0 {
			year = defaultYear
		}
		weeks := append([]int(nil), r.LaunchWeeks...)
		if weeks == nil {
			weeks = []int{}
		}
		rows = append(rows, entity.ProductRetailer{
			ID:          uuid.New().String(),
			ProductID:   productID,
			Retailer:    strings.TrimSpace(r.Retailer),
			LaunchWeeks: weeks,
			LaunchYear:  year,
			Position:    i,
		})
	}
	return rows
}

// Create validates the request, derives the launch week, generates the
// activity list and stores everything in one transaction.
func (s *ProductService) Create(ctx context.Context, userID string, req *CreateProductRequest) (*entity.Product, error) {
	if req.ProductType == "" {
		req.ProductType = schedule.ProductTypeLaunch
	}
	if !req.ProductType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProductType, req.ProductType)
	}
	code, err := gtin.Validate(req.GTIN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGTIN, err)
	}
	if req.ProductType == schedule.ProductTypeLaunch && len(req.Retailers) == 0 {
		return nil, ErrNoRetailers
	}
	if err := validateWeeks(req.LaunchWeek, req.Retailers); err != nil {
		return nil, err
	}

	now := s.now()
	fallback := schedule.Week{Year: req.LaunchYear, Week: req.LaunchWeek}
	defaultYear := req.LaunchYear
	if defaultYear == 0 {
		defaultYear = schedule.ISOWeekOf(now).Year
	}

	product := &entity.Product{
		ID:          uuid.New().String(),
		GTIN:        code,
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		ProductType: req.ProductType,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	product.Retailers = retailerRows(product.ID, req.Retailers, defaultYear)

	week := schedule.Reconcile(product.ProductType, product.RetailerLaunches(), fallback, now).Normalize()
	product.LaunchWeek = week.Week
	product.LaunchYear = week.Year
	product.LaunchDate = week.Start()

	entries, templateID, err := s.templateEntries(ctx, product.ProductType, req.TemplateID)
	if err != nil {
		return nil, err
	}
	product.TemplateID = templateID

	roster, err := s.users.Roster(ctx)
	if err != nil {
		return nil, err
	}

	generated := schedule.Generate(entries, product.LaunchDate, roster)
	product.Activities = make([]entity.Activity, 0, len(generated))
	statuses := make([]schedule.ActivityStatus, 0, len(generated))
	for i, a := range generated {
		row := entity.NewActivity(product.ID, i, a)
		row.CreatedAt = now
		row.UpdatedAt = now
		product.Activities = append(product.Activities, row)
		statuses = append(statuses, a.Status)
	}
	product.Status = schedule.DeriveStatus(statuses, schedule.ProductDraft)
	product.Progress = schedule.Progress(statuses)

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Product.Create(ctx, product)
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("gtin", product.GTIN),
		zap.String("launch", week.String()),
		zap.Int("activities", len(product.Activities)))

	s.publisher.PublishProductUpdate(product.ID, "created")
	notified := make(map[string]bool)
	for _, a := range product.Activities {
		if a.AssigneeID != nil && !notified[*a.AssigneeID] {
			notified[*a.AssigneeID] = true
			s.publisher.PublishUserActivityUpdate(*a.AssigneeID, product.ID, a.ID, "assigned")
		}
	}
	return product, nil
}

// templateEntries picks the explicit template, the stored default for the
// product type, or the catalog template, in that order.
func (s *ProductService) templateEntries(ctx context.Context, productType schedule.ProductType, templateID string) ([]schedule.TemplateEntry, *string, error) {
	if templateID != "" {
		tmpl, err := s.repos.Template.FindByID(ctx, templateID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTemplateNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("find template: %w", err)
		}
		return tmpl.ScheduleEntries(), &tmpl.ID, nil
	}

	tmpl, err := s.repos.Template.FindDefault(ctx, productType)
	switch {
	case err == nil:
		return tmpl.ScheduleEntries(), &tmpl.ID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, fmt.Errorf("find default template: %w", err)
	}

	if ct, ok := s.catalog.Find(productType); ok {
		return ct.Entries, nil, nil
	}
	return schedule.BuiltinTemplate(productType), nil, nil
}

// Get loads a product with retailers and activities
func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Progress = schedule.Progress(product.ActivityStatuses())
	return product, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, page, pageSize int, filter repository.ProductFilter) ([]entity.Product, int64, error) {
	products, total, err := s.repos.Product.List(ctx, page, pageSize, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Progress = schedule.Progress(products[i].ActivityStatuses())
	}
	return products, total, nil
}

// Update applies edits. Changes to retailers or the launch week re-derive the
// launch date and move every activity deadline; status and assignees stay.
func (s *ProductService) Update(ctx context.Context, id string, req *UpdateProductRequest) (*entity.Product, error) {
	product, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.GTIN != nil {
		code, err := gtin.Validate(*req.GTIN)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGTIN, err)
		}
		product.GTIN = code
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		product.Category = *req.Category
	}

	now := s.now()
	product.UpdatedAt = now

	reschedule := req.affectsSchedule()
	var retailers []entity.ProductRetailer
	var activities []entity.Activity
	if reschedule {
		fallback := product.Week()
		if req.LaunchWeek != nil {
			if !schedule.ValidWeek(*req.LaunchWeek) {
				return nil, fmt.Errorf("%w: got %d", ErrInvalidWeek, *req.LaunchWeek)
			}
			fallback.Week = *req.LaunchWeek
		}
		if req.LaunchYear != nil {
			fallback.Year = *req.LaunchYear
		}

		retailers = product.Retailers
		if req.Retailers != nil {
			if err := validateWeeks(0, *req.Retailers); err != nil {
				return nil, err
			}
			retailers = retailerRows(product.ID, *req.Retailers, fallback.Year)
		}
		if err := validateWeeks(fallback.Week, nil); err != nil {
			return nil, err
		}
		if product.ProductType == schedule.ProductTypeLaunch && len(retailers) == 0 {
			return nil, ErrNoRetailers
		}
		product.Retailers = retailers

		week := schedule.Reconcile(product.ProductType, product.RetailerLaunches(), fallback, now).Normalize()
		product.LaunchWeek = week.Week
		product.LaunchYear = week.Year
		product.LaunchDate = week.Start()

		current := make([]schedule.Activity, 0, len(product.Activities))
		for i := range product.Activities {
			current = append(current, product.Activities[i].Schedule())
		}
		moved := schedule.Reschedule(current, product.LaunchDate)
		for i := range product.Activities {
			product.Activities[i].Deadline = moved[i].Deadline
			product.Activities[i].DeadlineWeek = moved[i].DeadlineWeek
		}
		activities = product.Activities
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Product.Update(ctx, product); err != nil {
			return err
		}
		if !reschedule {
			return nil
		}
		if req.Retailers != nil {
			if err := tx.Product.ReplaceRetailers(ctx, product.ID, retailers); err != nil {
				return err
			}
		}
		return tx.Activity.SaveSchedule(ctx, activities)
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if reschedule {
		s.logger.Info("product rescheduled",
			zap.String("product_id", product.ID), zap.String("launch", product.Week().String()))
	}
	s.publisher.PublishProductUpdate(product.ID, "updated")
	return s.Get(ctx, product.ID)
}

// SetStatus applies a manual status. Cancelled is stored as an override;
// any other value clears it and the status is derived from the activities again.
func (s *ProductService) SetStatus(ctx context.Context, id string, status schedule.ProductStatus) (*entity.Product, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	product, err := s.repos.Product.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := schedule.ProductCancelled
	if status != schedule.ProductCancelled {
		next = schedule.DeriveStatus(product.ActivityStatuses(), schedule.ProductDraft)
	}
	if err := s.repos.Product.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	product.Status = next
	product.Progress = schedule.Progress(product.ActivityStatuses())

	s.publisher.PublishProductUpdate(product.ID, "status_change")
	return product, nil
}

// Delete removes a product with everything attached to it
func (s *ProductService) Delete(ctx context.Context, id string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Product.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	s.publisher.PublishProductUpdate(id, "deleted")
	return nil
}
