package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	args := m.Called(objectName, data, contentType)
	return args.String(0), args.Error(1)
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestBuildWorkbook(t *testing.T) {
	launch := schedule.WeekStart(2024, 15)
	products := []entity.Product{
		{
			Name: "Havredryck Barista 1L", GTIN: "7310865004703", LaunchWeek: 15, LaunchYear: 2024,
			Status:    schedule.ProductActive,
			Retailers: []entity.ProductRetailer{{Retailer: "ICA"}, {Retailer: "Coop"}},
			Activities: []entity.Activity{
				{Name: "Prissättning", Category: "commercial", Deadline: launch.AddDate(0, 0, -14), Status: schedule.ActivityCompleted,
					AssigneeName: "Anna", Comments: []entity.ActivityComment{{Text: "ok"}, {Text: "klart"}}},
				{Name: "Hyllstart", Category: "launch", Deadline: launch, Status: schedule.ActivityNotStarted},
			},
		},
		{Name: "Havredryck Barista 1L", GTIN: "4006381333931", LaunchWeek: 20, LaunchYear: 2024, Status: schedule.ProductDraft},
	}

	data, err := BuildWorkbook(products)
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, []string{"Sammanfattning", "Havredryck Barista 1L", "Havredryck Barista 1L (2)"}, f.GetSheetList())

	rows, err := f.GetRows("Sammanfattning")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Produkt", "GTIN", "Lanseringsvecka", "Kedjor", "Status", "Antal aktiviteter", "Klara aktiviteter"}, rows[0])
	assert.Equal(t, []string{"Havredryck Barista 1L", "7310865004703", "V15 2024", "ICA, Coop", "Aktiv", "2", "1"}, rows[1])
	assert.Equal(t, "Utkast", rows[2][4])

	rows, err = f.GetRows("Havredryck Barista 1L")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Aktivitet", "Kategori", "Deadline", "Vecka", "Status", "Ansvarig", "Kommentarer"}, rows[0])
	assert.Equal(t, []string{"Prissättning", "Commercial", "2024-03-25", "V13 2024", "Klart", "Anna", "2"}, rows[1])
	assert.Equal(t, "Ej påbörjad", rows[2][4])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"sammanfattning": true}
	long := strings.Repeat("a", 40)

	assert.Equal(t, strings.Repeat("a", 31), sheetName(long, used))
	assert.Equal(t, strings.Repeat("a", 27)+" (2)", sheetName(long, used))
	assert.Equal(t, "Mjölk-Fil 1-2", sheetName("Mjölk/Fil 1:2", used))
	assert.Equal(t, "Produkt", sheetName("  ", used))
	assert.Equal(t, "Sammanfattning (2)", sheetName("Sammanfattning", used))
}

func TestExportService_Archive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.products.Create(ctx, "u1", launchRequest())
	require.NoError(t, err)

	disabled := NewExportService(env.repos.Product, nil, zap.NewNop())
	_, err = disabled.Archive(ctx, nil)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	archiver := &mockArchiver{}
	svc := NewExportService(env.repos.Product, archiver, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	name := "exports/2024/02/product-launches-20240203-040506.xlsx"
	archiver.On("Upload", name, mock.AnythingOfType("[]uint8"), xlsxContentType).
		Return("https://minio.local/exports/x.xlsx?sig=1", nil)

	res, err := svc.Archive(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, name, res.ObjectName)
	assert.Equal(t, "https://minio.local/exports/x.xlsx?sig=1", res.URL)
	archiver.AssertExpectations(t)

	data, err := svc.Workbook(ctx, []string{"missing"})
	require.NoError(t, err)
	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Sammanfattning"}, f.GetSheetList())
}
