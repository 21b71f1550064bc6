package mappedrows

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
)

type projectorFixture struct {
	db      *gorm.DB
	proj    *Projector
	file    *models.QuoteFile
	mapping RowMapping
}

func newProjectorFixture(t *testing.T) *projectorFixture {
	t.Helper()
	db := testdb.New(t)
	f := &projectorFixture{
		db:   db,
		proj: NewProjector(ingest.NewRepository(db), 100),
		file: &models.QuoteFile{ID: uuid.New(), ImportedPage: 1},
		mapping: RowMapping{
			ProductNo:   uuid.New(),
			Description: uuid.New(),
			SerialNo:    uuid.New(),
			DateFrom:    uuid.New(),
			DateTo:      uuid.New(),
			Qty:         uuid.New(),
			Price:       uuid.New(),
		},
	}
	return f
}

func (f *projectorFixture) seedRow(t *testing.T, page int, onePay bool, cells map[uuid.UUID]string) {
	t.Helper()
	var data types.ColumnsData
	for columnID, value := range cells {
		v := value
		data = append(data, types.ColumnData{ImportableColumnID: columnID, Header: "h", Value: &v})
	}
	row := models.ImportedRow{
		ID:          uuid.New(),
		QuoteFileID: f.file.ID,
		Page:        page,
		ColumnsData: data,
		IsOnePay:    onePay,
	}
	if err := f.db.Create(&row).Error; err != nil {
		t.Fatalf("seed imported row: %v", err)
	}
}

func TestProjectDurationPricing(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.ProductNo: "A100",
		f.mapping.DateFrom:  "2024-01-01",
		f.mapping.DateTo:    "2024-07-01",
		f.mapping.Price:     "10",
	})

	rows, dropped, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{
		CalculateListPrice: true,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if dropped != 0 || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d (dropped %d)", len(rows), dropped)
	}

	// 6 whole months x 10 = 60.
	if !rows[0].Price.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected price 60, got %s", rows[0].Price)
	}
	if !rows[0].OriginalPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected original price 10, got %s", rows[0].OriginalPrice)
	}
}

func TestProjectOnePaySkipsDurationMultiplier(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, true, map[uuid.UUID]string{
		f.mapping.ProductNo: "A100",
		f.mapping.DateFrom:  "2024-01-01",
		f.mapping.DateTo:    "2024-07-01",
		f.mapping.Price:     "10",
	})

	rows, _, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{
		CalculateListPrice: true,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !rows[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected one-pay price 10, got %s", rows[0].Price)
	}
	if !rows[0].IsOnePay {
		t.Fatal("expected one-pay flag carried over")
	}
}

func TestProjectAppliesExchangeRate(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.ProductNo: "A100",
		f.mapping.Price:     "$1,234.50",
	})

	rate, _ := decimal.NewFromString("1.25")
	rows, _, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{
		ExchangeRate: rate,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	want, _ := decimal.NewFromString("1543.125")
	if !rows[0].Price.Equal(want) {
		t.Fatalf("expected %s, got %s", want, rows[0].Price)
	}
}

func TestProjectParsesSerialAndFreeTextDates(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.ProductNo: "A100",
		f.mapping.DateFrom:  "45292", // 2024-01-01
		f.mapping.DateTo:    "July 1, 2024",
	})

	rows, _, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if rows[0].DateFrom == nil || !rows[0].DateFrom.Equal(wantFrom) {
		t.Fatalf("expected serial date %s, got %v", wantFrom, rows[0].DateFrom)
	}
	if rows[0].DateTo == nil || !rows[0].DateTo.Equal(wantTo) {
		t.Fatalf("expected free-text date %s, got %v", wantTo, rows[0].DateTo)
	}
}

func TestProjectFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.ProductNo: "A100",
		f.mapping.DateFrom:  "not a date",
		f.mapping.Qty:       "???",
	})

	defaultFrom := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows, _, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{
		DefaultDateFrom: &defaultFrom,
		DefaultQty:      3,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if rows[0].DateFrom == nil || !rows[0].DateFrom.Equal(defaultFrom) {
		t.Fatalf("expected default date, got %v", rows[0].DateFrom)
	}
	if rows[0].Qty != 3 {
		t.Fatalf("expected default qty 3, got %d", rows[0].Qty)
	}
}

func TestProjectDropsRowsWithoutIdentifyingData(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.Price: "10",
		f.mapping.Qty:   "2",
	})
	f.seedRow(t, 1, false, map[uuid.UUID]string{
		f.mapping.SerialNo: "SN-1",
	})

	rows, dropped, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped row, got %d", dropped)
	}
	if len(rows) != 1 || rows[0].SerialNo == nil || *rows[0].SerialNo != "SN-1" {
		t.Fatalf("unexpected surviving rows %+v", rows)
	}
}

func TestProjectSkipsPagesBeforeImportedPage(t *testing.T) {
	t.Parallel()

	f := newProjectorFixture(t)
	f.file.ImportedPage = 2
	f.seedRow(t, 1, false, map[uuid.UUID]string{f.mapping.ProductNo: "OLD"})
	f.seedRow(t, 2, false, map[uuid.UUID]string{f.mapping.ProductNo: "NEW"})

	rows, _, err := f.proj.Project(context.Background(), f.file, uuid.New(), f.mapping, Settings{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 || *rows[0].ProductNo != "NEW" {
		t.Fatalf("expected only rows from page 2 onward, got %+v", rows)
	}
}
