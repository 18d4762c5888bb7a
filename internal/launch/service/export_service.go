package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	summarySheet    = "Sammanfattning"
	maxSheetName    = 31
)

var (
	productStatusLabel = map[schedule.ProductStatus]string{
		schedule.ProductDraft:     "Utkast",
		schedule.ProductActive:    "Aktiv",
		schedule.ProductCompleted: "Klart",
		schedule.ProductCancelled: "Inställd",
	}
	activityStatusLabel = map[schedule.ActivityStatus]string{
		schedule.ActivityNotStarted: "Ej påbörjad",
		schedule.ActivityInProgress: "Pågående",
		schedule.ActivityCompleted:  "Klart",
	}
	titleCase = cases.Title(language.Swedish)
)

// Archiver stores an export and returns a download URL
type Archiver interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// MinioArchiver keeps exports in a MinIO bucket behind presigned URLs
type MinioArchiver struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioArchiver creates a MinioArchiver
func NewMinioArchiver(client *minio.Client, bucket string, expiry time.Duration) *MinioArchiver {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinioArchiver{client: client, bucket: bucket, expiry: expiry}
}

// Upload puts the object and presigns a GET for it
func (a *MinioArchiver) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload to minio: %w", err)
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, objectName[strings.LastIndex(objectName, "/")+1:]))
	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, a.expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}
	return u.String(), nil
}

// ExportService renders product plans as Excel workbooks
type ExportService struct {
	productRepo *repository.ProductRepository
	archiver    Archiver
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService creates an ExportService. A nil archiver disables Archive.
func NewExportService(productRepo *repository.ProductRepository, archiver Archiver, logger *zap.Logger) *ExportService {
	return &ExportService{productRepo: productRepo, archiver: archiver, logger: logger, now: time.Now}
}

// ArchiveResult points at an archived export
type ArchiveResult struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
}

// Workbook renders the selected products, or every product when ids is empty
func (s *ExportService) Workbook(ctx context.Context, ids []string) ([]byte, error) {
	products, err := s.productRepo.ListForExport(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return BuildWorkbook(products)
}

// Archive renders the workbook and stores it in object storage
func (s *ExportService) Archive(ctx context.Context, ids []string) (*ArchiveResult, error) {
	if s.archiver == nil {
		return nil, ErrStorageDisabled
	}
	data, err := s.Workbook(ctx, ids)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("exports/%s/product-launches-%s.xlsx",
		s.now().UTC().Format("2006/01"), s.now().UTC().Format("20060102-150405"))
	u, err := s.archiver.Upload(ctx, name, data, xlsxContentType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export archived", zap.String("object", name), zap.Int("bytes", len(data)))
	return &ArchiveResult{ObjectName: name, URL: u}, nil
}

// BuildWorkbook writes a summary sheet plus one sheet per product
func BuildWorkbook(products []entity.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	header := []interface{}{"Produkt", "GTIN", "Lanseringsvecka", "Kedjor", "Status", "Antal aktiviteter", "Klara aktiviteter"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, p := range products {
		retailers := make([]string, 0, len(p.Retailers))
		for _, r := range p.Retailers {
			retailers = append(retailers, r.Retailer)
		}
		completed := 0
		for _, a := range p.Activities {
			if a.Status == schedule.ActivityCompleted {
				completed++
			}
		}
		row := []interface{}{
			p.Name, p.GTIN, p.Week().String(), strings.Join(retailers, ", "),
			productStatusLabel[p.Status], len(p.Activities), completed,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 32)
	_ = f.SetColWidth(summarySheet, "B", "D", 18)

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, p := range products {
		name := sheetName(p.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		head := []interface{}{"Aktivitet", "Kategori", "Deadline", "Vecka", "Status", "Ansvarig", "Kommentarer"}
		if err := f.SetSheetRow(name, "A1", &head); err != nil {
			return nil, err
		}
		for i, a := range p.Activities {
			row := []interface{}{
				a.Name, titleCase.String(a.Category), a.Deadline.Format("2006-01-02"), schedule.ISOWeekOf(a.Deadline).String(),
				activityStatusLabel[a.Status], a.AssigneeName, len(a.Comments),
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, err
			}
		}
		_ = f.SetColWidth(name, "A", "A", 48)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName fits Excel's rules: at most 31 characters, no []:*?/\ and unique
// case-insensitively.
func sheetName(name string, used map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "Produkt"
	}
	base := truncateRunes(cleaned, maxSheetName)
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(cleaned, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
