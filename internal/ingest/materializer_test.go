package ingest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/parsers"
	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

func TestMaterializeBuildsRowsInPageAndColumnOrder(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	materializer := NewMaterializer(columns.NewResolver(columns.NewRepository(db)))
	ctx := context.Background()

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}
	pages := []parsers.Page{
		{
			Name:    "Sheet1",
			Headers: []string{"Product No.", "Description", "Price"},
			Rows: [][]string{
				{"A100", "Server", "10.50"},
				{"A200", "Switch", "5.00"},
			},
		},
	}

	rows, err := materializer.Materialize(ctx, db, file, pages)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Page != 1 || first.QuoteFileID != file.ID {
		t.Fatalf("unexpected row metadata %+v", first)
	}
	if len(first.ColumnsData) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(first.ColumnsData))
	}
	if first.ColumnsData[0].Header != "Product No." || *first.ColumnsData[0].Value != "A100" {
		t.Fatalf("unexpected first cell %+v", first.ColumnsData[0])
	}
	if first.ColumnsData[2].Header != "Price" || *first.ColumnsData[2].Value != "10.50" {
		t.Fatalf("column order not preserved: %+v", first.ColumnsData)
	}

	// Both rows address the same resolved column ids.
	if rows[0].ColumnsData[1].ImportableColumnID != rows[1].ColumnsData[1].ImportableColumnID {
		t.Fatal("expected rows to share resolved column ids")
	}
}

func TestMaterializeSkipsNilRowPagesButAdvancesCounter(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	materializer := NewMaterializer(columns.NewResolver(columns.NewRepository(db)))
	ctx := context.Background()

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 3}
	pages := []parsers.Page{
		{Name: "Cover"}, // nil rows
		{
			Name:    "Data",
			Headers: []string{"Product No."},
			Rows:    [][]string{{"A100"}},
		},
	}

	rows, err := materializer.Materialize(ctx, db, file, pages)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Page != 4 {
		t.Fatalf("expected page 4 (3 + skipped cover), got %d", rows[0].Page)
	}
}

func TestMaterializeFlagsOnePayRows(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	materializer := NewMaterializer(columns.NewResolver(columns.NewRepository(db)))
	ctx := context.Background()

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}
	pages := []parsers.Page{
		{
			Name:    "Data",
			Headers: []string{"Description", "Terms"},
			Rows: [][]string{
				{"Server", "Return to depot"},
				{"Switch", "rts service"},
				{"Router", "ARTSY support"}, // no word boundary match
				{"Hub", "standard"},
			},
		},
	}

	rows, err := materializer.Materialize(ctx, db, file, pages)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}

	want := []bool{true, true, false, false}
	for i, row := range rows {
		if row.IsOnePay != want[i] {
			t.Errorf("row %d: expected is_one_pay=%v, got %v", i, want[i], row.IsOnePay)
		}
	}
}

func TestMaterializeNormalizesAttributesAcrossPages(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	materializer := NewMaterializer(columns.NewResolver(columns.NewRepository(db)))
	ctx := context.Background()

	file := &models.QuoteFile{ID: uuid.New(), ImportedPage: 1}
	pages := []parsers.Page{
		{
			Name:       "P1",
			Headers:    []string{"Product No."},
			Rows:       [][]string{{"A100"}},
			Attributes: map[string]string{"System Handle": "SH-1", "Pricing Document": ""},
		},
		{
			Name:    "P2",
			Headers: []string{"Product No."},
			Rows:    [][]string{{"B200"}},
			// System Handle surfaced by page 1 must be null filled here.
		},
	}

	rows, err := materializer.Materialize(ctx, db, file, pages)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	// Pricing Document was empty on every page and must not be surfaced.
	if len(rows[0].ColumnsData) != 2 {
		t.Fatalf("expected product + system handle cells, got %+v", rows[0].ColumnsData)
	}

	attrCell := rows[0].ColumnsData[1]
	if attrCell.Header != "System Handle" || attrCell.Value == nil || *attrCell.Value != "SH-1" {
		t.Fatalf("unexpected attribute cell on page 1: %+v", attrCell)
	}

	nullCell := rows[1].ColumnsData[1]
	if nullCell.Header != "System Handle" || nullCell.Value != nil {
		t.Fatalf("expected null filled attribute on page 2, got %+v", nullCell)
	}
}
