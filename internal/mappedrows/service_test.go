package mappedrows

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
)

func TestServiceProjectReplacesRowsAndEmitsEvent(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	repo := NewRepository(db)
	events := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(NewProjector(ingest.NewRepository(db), 100), repo, events, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}
	versionID := uuid.New()
	mapping := RowMapping{ProductNo: uuid.New()}

	value := "A100"
	seed := models.ImportedRow{
		ID:          uuid.New(),
		QuoteFileID: file.ID,
		Page:        1,
		ColumnsData: types.ColumnsData{{ImportableColumnID: mapping.ProductNo, Header: "Product No.", Value: &value}},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed imported row: %v", err)
	}

	// Stale mapped row that must be replaced.
	stale := models.MappedRow{ID: uuid.New(), QuoteFileID: file.ID, QuoteVersionID: versionID}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	if err := svc.Project(context.Background(), file, versionID, mapping, Settings{}); err != nil {
		t.Fatalf("project: %v", err)
	}

	rows, err := svc.ListByVersion(context.Background(), versionID, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID == stale.ID {
		t.Fatalf("expected stale rows replaced, got %+v", rows)
	}

	var eventRows []models.OutboxEvent
	if err := db.Where("event_type = ?", enums.EventMappedRowsReplaced).Find(&eventRows).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(eventRows) != 1 {
		t.Fatalf("expected 1 replacement event, got %d", len(eventRows))
	}
}

func TestServiceProjectClearsRowsForEmptyMapping(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	repo := NewRepository(db)
	svc, err := NewService(NewProjector(ingest.NewRepository(db), 100), repo, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}
	versionID := uuid.New()

	value := "A100"
	seed := models.ImportedRow{
		ID:          uuid.New(),
		QuoteFileID: file.ID,
		Page:        1,
		ColumnsData: types.ColumnsData{{ImportableColumnID: uuid.New(), Header: "Product No.", Value: &value}},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed imported row: %v", err)
	}
	stale := models.MappedRow{ID: uuid.New(), QuoteFileID: file.ID, QuoteVersionID: versionID}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	// No fields mapped: every projected row lacks identifying data and is
	// dropped, leaving the version with an empty set.
	if err := svc.Project(context.Background(), file, versionID, RowMapping{}, Settings{}); err != nil {
		t.Fatalf("project: %v", err)
	}

	rows, err := svc.ListByVersion(context.Background(), versionID, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no mapped rows, got %d", len(rows))
	}
}
