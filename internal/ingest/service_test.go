package ingest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, db
}

func testRow(fileID uuid.UUID, page int, product string) models.ImportedRow {
	value := product
	return models.ImportedRow{
		ID:          uuid.New(),
		QuoteFileID: fileID,
		Page:        page,
		ColumnsData: types.ColumnsData{
			{ImportableColumnID: uuid.New(), Header: "Product No.", Value: &value},
		},
	}
}

func TestReplaceRowsIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}

	first := []models.ImportedRow{
		testRow(file.ID, 1, "A100"),
		testRow(file.ID, 1, "A200"),
	}
	if err := svc.ReplaceRows(ctx, nil, file, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []models.ImportedRow{
		testRow(file.ID, 1, "B100"),
	}
	if err := svc.ReplaceRows(ctx, nil, file, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	count, err := repo.CountFrom(ctx, file.ID, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected old rows fully replaced, got %d rows", count)
	}

	row, err := repo.FirstRow(ctx, file.ID, 1)
	if err != nil || row == nil {
		t.Fatalf("first row: %v", err)
	}
	if got, _ := row.ColumnsData.ValueFor(row.ColumnsData[0].ImportableColumnID); got == nil || *got != "B100" {
		t.Fatalf("expected replacement row, got %+v", row.ColumnsData)
	}
}

func TestReplaceRowsRefusesEmptySet(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}

	if err := svc.ReplaceRows(ctx, nil, file, []models.ImportedRow{testRow(file.ID, 1, "A100")}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	err := svc.ReplaceRows(ctx, nil, file, nil)
	if !errors.IsCode(err, errors.CodeNoDataFound) {
		t.Fatalf("expected NO_DATA_FOUND, got %v", err)
	}

	// Existing rows must survive the refused replace.
	count, err2 := repo.CountFrom(ctx, file.ID, 1)
	if err2 != nil || count != 1 {
		t.Fatalf("expected existing rows preserved, count=%d err=%v", count, err2)
	}
}

func TestReplaceRowsSharesCallerTransaction(t *testing.T) {
	t.Parallel()

	svc, _, db := newTestService(t)
	ctx := context.Background()
	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}

	// A column minted in the same unit of work must roll back with the
	// refused replace.
	column := models.ImportableColumn{ID: uuid.New(), Header: "Zone", Name: "zone", IsTemp: true}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&column).Error; err != nil {
			return err
		}
		return svc.ReplaceRows(ctx, tx, file, nil)
	})
	if !errors.IsCode(err, errors.CodeNoDataFound) {
		t.Fatalf("expected NO_DATA_FOUND, got %v", err)
	}

	var count int64
	if err := db.Model(&models.ImportableColumn{}).Where("id = ?", column.ID).Count(&count).Error; err != nil {
		t.Fatalf("count columns: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected minted column rolled back, found %d", count)
	}
}
