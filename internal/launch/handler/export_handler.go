package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves Excel exports
type ExportHandler struct {
	svc *service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

type exportRequest struct {
	ProductIDs []string `json:"product_ids"`
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Download GET /api/v1/exports/products.xlsx?ids=a,b
func (h *ExportHandler) Download(c *gin.Context) {
	data, err := h.svc.Workbook(c.Request.Context(), splitIDs(c.Query("ids")))
	if err != nil {
		Fail(c, "export", err)
		return
	}
	filename := fmt.Sprintf("product-launches-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, xlsxContentType, data)
}

// Archive POST /api/v1/exports/products
func (h *ExportHandler) Archive(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	res, err := h.svc.Archive(c.Request.Context(), req.ProductIDs)
	if err != nil {
		Fail(c, "archive export", err)
		return
	}
	Created(c, res)
}
