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
	"go.uber.org/zap"
)

// TemplateService manages activity templates. Edits never touch activities
// that were already generated from a template.
type TemplateService struct {
	repo   *repository.TemplateRepository
	logger *zap.Logger
}

// NewTemplateService creates a TemplateService
func NewTemplateService(repo *repository.TemplateRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, logger: logger}
}

// CreateTemplateRequest creates a template with its entries
type CreateTemplateRequest struct {
	Code        string                   `json:"code" binding:"required"`
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	ProductType schedule.ProductType     `json:"product_type"`
	IsDefault   bool                     `json:"is_default"`
	Entries     []schedule.TemplateEntry `json:"entries"`
}

// ListTemplates returns all templates with entries
func (s *TemplateService) ListTemplates(ctx context.Context) ([]entity.ActivityTemplate, error) {
	return s.repo.List(ctx)
}

// GetTemplate loads one template
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*entity.ActivityTemplate, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	return tmpl, err
}

// validateTemplate reuses the catalog rules: code, product type, entry ids and names.
func validateTemplate(code string, productType schedule.ProductType, entries []schedule.TemplateEntry) error {
	c := schedule.Catalog{Templates: []schedule.CatalogTemplate{{
		Code:        code,
		ProductType: productType,
		Entries:     entries,
	}}}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return nil
}

// CreateTemplate stores a new template
func (s *TemplateService) CreateTemplate(ctx context.Context, userID string, req *CreateTemplateRequest) (*entity.ActivityTemplate, error) {
	if req.ProductType == "" {
		req.ProductType = schedule.ProductTypeLaunch
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := validateTemplate(req.Code, req.ProductType, req.Entries); err != nil {
		return nil, err
	}

	now := time.Now()
	tmpl := &entity.ActivityTemplate{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		ProductType: req.ProductType,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tmpl.Entries = entity.NewTemplateEntries(tmpl.ID, req.Entries, newID)

	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	if req.IsDefault {
		if err := s.repo.SetDefault(ctx, tmpl.ID, tmpl.ProductType); err != nil {
			return nil, fmt.Errorf("set default: %w", err)
		}
		tmpl.IsDefault = true
	}

	s.logger.Info("template created", zap.String("template_id", tmpl.ID), zap.String("code", tmpl.Code))
	return tmpl, nil
}

// ReplaceEntries swaps the entries of a template
func (s *TemplateService) ReplaceEntries(ctx context.Context, id string, entries []schedule.TemplateEntry) (*entity.ActivityTemplate, error) {
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateTemplate(tmpl.Code, tmpl.ProductType, entries); err != nil {
		return nil, err
	}

	rows := entity.NewTemplateEntries(tmpl.ID, entries, newID)
	if err := s.repo.ReplaceEntries(ctx, tmpl.ID, rows); err != nil {
		return nil, fmt.Errorf("replace entries: %w", err)
	}
	tmpl.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetTemplate(ctx, id)
}

// DeleteTemplate removes a template. Products created from it keep their activities.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTemplateNotFound
	}
	return err
}

// SetDefault makes a template the default for its product type
func (s *TemplateService) SetDefault(ctx context.Context, id string) error {
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.SetDefault(ctx, tmpl.ID, tmpl.ProductType)
}

// SeedDefaults stores the catalog templates when no template exists yet
func (s *TemplateService) SeedDefaults(ctx context.Context, catalog *schedule.Catalog) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, ct := range catalog.Templates {
		now := time.Now()
		tmpl := &entity.ActivityTemplate{
			ID:          uuid.New().String(),
			Code:        ct.Code,
			Name:        ct.Name,
			Description: ct.Description,
			ProductType: ct.ProductType,
			IsDefault:   ct.Default,
			CreatedBy:   "system",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		tmpl.Entries = entity.NewTemplateEntries(tmpl.ID, ct.Entries, newID)
		if err := s.repo.Create(ctx, tmpl); err != nil {
			return fmt.Errorf("seed template %s: %w", ct.Code, err)
		}
	}
	s.logger.Info("seeded activity templates", zap.Int("count", len(catalog.Templates)))
	return nil
}

func newID() string {
	return uuid.New().String()
}
