package columns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/errors"
)

func seedColumn(t *testing.T, db *gorm.DB, header, name string, isSystem, isTemp bool, aliases ...string) models.ImportableColumn {
	t.Helper()
	column := models.ImportableColumn{
		ID:       uuid.New(),
		Header:   header,
		Name:     name,
		IsSystem: isSystem,
		IsTemp:   isTemp,
	}
	for _, alias := range aliases {
		column.Aliases = append(column.Aliases, models.ImportableColumnAlias{
			ID:    uuid.New(),
			Alias: alias,
		})
	}
	if err := db.Create(&column).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}
	return column
}

func TestResolvePrefersSystemColumns(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	resolver := NewResolver(NewRepository(db))
	ctx := context.Background()

	temp := seedColumn(t, db, "Qty", "qty_dup", false, true, "quantity count")
	system := seedColumn(t, db, "Qty", "qty", true, false, "qty")

	// Both columns answer to "qty" once the temp column gains the alias.
	if err := db.Create(&models.ImportableColumnAlias{
		ID: uuid.New(), ImportableColumnID: temp.ID, Alias: "qty base",
	}).Error; err != nil {
		t.Fatalf("seed alias: %v", err)
	}

	allocated := map[uuid.UUID]struct{}{}
	got, err := resolver.Resolve(ctx, db, "  QTY ", allocated)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != system.ID {
		t.Fatalf("expected system column %s, got %s", system.ID, got)
	}
}

func TestResolveSkipsAllocatedColumns(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	resolver := NewResolver(NewRepository(db))
	ctx := context.Background()

	system := seedColumn(t, db, "Price", "price", true, false, "price")

	allocated := map[uuid.UUID]struct{}{system.ID: {}}
	got, err := resolver.Resolve(ctx, db, "Price", allocated)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == system.ID {
		t.Fatal("expected a fresh temp column when system column already allocated")
	}

	var created models.ImportableColumn
	if err := db.First(&created, "id = ?", got).Error; err != nil {
		t.Fatalf("load created column: %v", err)
	}
	if !created.IsTemp {
		t.Fatalf("expected temp column, got %+v", created)
	}
}

func TestResolveCreatesTempColumnForUnknownHeader(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	resolver := NewResolver(NewRepository(db))
	ctx := context.Background()

	got, err := resolver.Resolve(ctx, db, "Extended Warranty %", map[uuid.UUID]struct{}{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var created models.ImportableColumn
	if err := db.Preload("Aliases").First(&created, "id = ?", got).Error; err != nil {
		t.Fatalf("load created column: %v", err)
	}
	if !created.IsTemp || created.IsSystem {
		t.Fatalf("expected temp column, got %+v", created)
	}
	if created.Name != "extended_warranty" {
		t.Fatalf("expected slug name, got %q", created.Name)
	}
	if len(created.Aliases) != 1 || created.Aliases[0].Alias != "extended warranty %" {
		t.Fatalf("expected normalized alias, got %+v", created.Aliases)
	}

	// Second resolution of the same header reuses the column.
	again, err := resolver.Resolve(ctx, db, "extended warranty %", map[uuid.UUID]struct{}{})
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again != got {
		t.Fatalf("expected same column, got %s and %s", got, again)
	}
}

func TestResolveRejectsBlankHeader(t *testing.T) {
	t.Parallel()

	db := testdb.New(t)
	resolver := NewResolver(NewRepository(db))

	_, err := resolver.Resolve(context.Background(), db, "   ", map[uuid.UUID]struct{}{})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Product No.":         "product_no",
		"  Unit Price (USD) ": "unit_price_usd",
		"qty":                 "qty",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
