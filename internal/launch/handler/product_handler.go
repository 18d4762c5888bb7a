package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

// ProductHandler serves product CRUD
type ProductHandler struct {
	svc        *service.ProductService
	activities *service.ActivityService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(svc *service.ProductService, activities *service.ActivityService) *ProductHandler {
	return &ProductHandler{svc: svc, activities: activities}
}

// List GET /api/v1/products?page=&page_size=&status=&product_type=&keyword=
func (h *ProductHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filter := repository.ProductFilter{
		Status:      c.Query("status"),
		ProductType: c.Query("product_type"),
		Keyword:     c.Query("keyword"),
	}

	products, total, err := h.svc.List(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		Fail(c, "list products", err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: products,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Create POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	product, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		Fail(c, "create product", err)
		return
	}
	Created(c, product)
}

// Get GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "load product", err)
		return
	}
	Success(c, product)
}

// Update PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	product, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, "update product", err)
		return
	}
	Success(c, product)
}

// Delete DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, "delete product", err)
		return
	}
	Success(c, nil)
}

type statusRequest struct {
	Status schedule.ProductStatus `json:"status" binding:"required"`
}

// SetStatus PUT /api/v1/products/:id/status
func (h *ProductHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	product, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		Fail(c, "set status", err)
		return
	}
	Success(c, product)
}

// ListActivities GET /api/v1/products/:id/activities
func (h *ProductHandler) ListActivities(c *gin.Context) {
	activities, err := h.activities.ListByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "list activities", err)
		return
	}
	Success(c, gin.H{"items": activities})
}
