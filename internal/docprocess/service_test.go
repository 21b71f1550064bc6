package docprocess

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/internal/testdb"
	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/docengine"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/lock"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/storage"
)

type memLockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memLockStore) GetString(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memLockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memLockStore) LockKey(name string) string { return "lock:" + name }

type fixture struct {
	db        *gorm.DB
	dir       string
	svc       Service
	repo      *Repository
	lockStore *memLockStore
	quote     *models.Quote
	version   *models.QuoteVersion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testdb.New(t)
	dir := t.TempDir()

	store, err := storage.NewStore(ctx, config.StorageConfig{RootDir: dir}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	engine, err := docengine.NewClient(ctx, config.DocEngineConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	lockStore := &memLockStore{data: map[string]string{}}
	locks, err := lock.NewProvider(lockStore, config.LockConfig{
		WaitTimeout: 200 * time.Millisecond,
		TTL:         time.Second,
		PollEvery:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	ingestRepo := ingest.NewRepository(db)
	rows, err := ingest.NewService(ingestRepo, nil)
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}

	events := outbox.NewService(outbox.NewRepository(db), nil)
	projection, err := mappedrows.NewService(
		mappedrows.NewProjector(ingestRepo, 100),
		mappedrows.NewRepository(db),
		events,
		nil,
	)
	if err != nil {
		t.Fatalf("new mapped rows service: %v", err)
	}

	registry := NewDefaultRegistry(ProcessorDeps{
		DB:           db,
		Store:        store,
		Engine:       engine,
		Materializer: ingest.NewMaterializer(columns.NewResolver(columns.NewRepository(db))),
		Rows:         rows,
		Schedules:    NewScheduleRepository(db),
	})

	repo := NewRepository(db)
	svc, err := NewService(
		db,
		repo,
		NewMappingRepository(db),
		quotes.NewRepository(db),
		ingestRepo,
		columns.NewRepository(db),
		registry,
		projection,
		locks,
		events,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	creator := uuid.New()
	quote := &models.Quote{ID: uuid.New(), UserID: creator}
	version := &models.QuoteVersion{
		ID:            uuid.New(),
		QuoteID:       quote.ID,
		UserID:        creator,
		VersionNumber: 1,
	}
	quote.ActiveVersionID = &version.ID
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}
	if err := db.Create(quote).Error; err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	return &fixture{db: db, dir: dir, svc: svc, repo: repo, lockStore: lockStore, quote: quote, version: version}
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return name
}

func (f *fixture) seedFile(t *testing.T, fileType enums.QuoteFileType, format enums.FileFormat, path string) *models.QuoteFile {
	t.Helper()
	file := &models.QuoteFile{
		ID:               uuid.New(),
		QuoteID:          f.quote.ID,
		FileType:         fileType,
		Format:           format,
		OriginalFilePath: path,
		OriginalFileName: path,
		ImportedPage:     1,
	}
	if err := f.db.Create(file).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}
	return file
}

func (f *fixture) seedTemplateField(t *testing.T, name string) {
	t.Helper()
	field := models.TemplateField{ID: uuid.New(), Name: name, Header: name}
	if err := f.db.Create(&field).Error; err != nil {
		t.Fatalf("seed template field: %v", err)
	}
}

func TestPerformProcessPriceListCSV(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedTemplateField(t, "product_no")
	f.seedTemplateField(t, "price")

	path := f.writeFile(t, "list.csv", "Product No.,Price\nA100,10\nA200,20\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
		t.Fatalf("perform process: %v", err)
	}

	stored, err := f.repo.FindFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if stored.State != enums.QuoteFileStateHandled || stored.HandledAt == nil {
		t.Fatalf("expected handled file, got %+v", stored)
	}
	if stored.AutomappedAt == nil {
		t.Fatal("expected automapped stamp")
	}

	var rows []models.ImportedRow
	if err := f.db.Where("quote_file_id = ?", file.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 imported rows, got %d", len(rows))
	}

	var mappings []models.FieldColumnMapping
	if err := f.db.Where("quote_version_id = ?", f.version.ID).Find(&mappings).Error; err != nil {
		t.Fatalf("load mappings: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 automapped fields, got %d", len(mappings))
	}

	var version models.QuoteVersion
	if err := f.db.First(&version, "id = ?", f.version.ID).Error; err != nil {
		t.Fatalf("load version: %v", err)
	}
	if version.PriceListFileID == nil || *version.PriceListFileID != file.ID {
		t.Fatalf("expected price list attached, got %v", version.PriceListFileID)
	}

	var mapped []models.MappedRow
	if err := f.db.Where("quote_version_id = ?", f.version.ID).Order("created_at").Find(&mapped).Error; err != nil {
		t.Fatalf("load mapped rows: %v", err)
	}
	if len(mapped) != 2 {
		t.Fatalf("expected 2 mapped rows projected, got %d", len(mapped))
	}
	products := map[string]bool{}
	for _, row := range mapped {
		if row.ProductNo != nil {
			products[*row.ProductNo] = true
		}
	}
	if !products["A100"] || !products["A200"] {
		t.Fatalf("expected projected products, got %v", products)
	}

	for _, eventType := range []enums.OutboxEventType{
		enums.EventQuoteFileProcessed,
		enums.EventFieldMappingSynchronized,
		enums.EventMappedRowsReplaced,
	} {
		var count int64
		if err := f.db.Model(&models.OutboxEvent{}).
			Where("event_type = ?", eventType).Count(&count).Error; err != nil {
			t.Fatalf("count events: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 %s event, got %d", eventType, count)
		}
	}
}

func TestPerformProcessResetsRowGroupsForPriceList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	groups := types.RowsGroups{{ID: uuid.New(), Name: "Old", RowIDs: []uuid.UUID{uuid.New()}}}
	if err := f.db.Model(&models.QuoteVersion{}).Where("id = ?", f.version.ID).
		Update("group_description", groups).Error; err != nil {
		t.Fatalf("seed groups: %v", err)
	}

	path := f.writeFile(t, "list.csv", "Product No.\nA100\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
		t.Fatalf("perform process: %v", err)
	}

	var version models.QuoteVersion
	if err := f.db.First(&version, "id = ?", f.version.ID).Error; err != nil {
		t.Fatalf("load version: %v", err)
	}
	if version.GroupDescription != nil {
		t.Fatalf("expected row groups reset, got %+v", version.GroupDescription)
	}
}

func TestPerformProcessEmptyPriceListSetsException(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	path := f.writeFile(t, "empty.csv", "")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	err := f.svc.PerformProcess(ctx, f.quote, file, Options{})
	if !errors.IsCode(err, errors.CodeNoDataFound) {
		t.Fatalf("expected no-data error, got %v", err)
	}

	stored, err := f.repo.FindFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if stored.State != enums.QuoteFileStateException {
		t.Fatalf("expected exception state, got %s", stored.State)
	}
	if stored.ExceptionCode == nil || *stored.ExceptionCode != ExceptionNoRows {
		t.Fatalf("expected %s exception, got %v", ExceptionNoRows, stored.ExceptionCode)
	}

	var count int64
	if err := f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventQuoteFileException).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 exception event, got %d", count)
	}
}

func TestPerformProcessScheduleCSV(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	path := f.writeFile(t, "schedule.csv", "From,To,Price\n2024-01-01,2024-07-01,100\n2024-07-01,2025-01-01,110\n")
	file := f.seedFile(t, enums.QuoteFileTypePaymentSchedule, enums.FileFormatCSV, path)

	if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
		t.Fatalf("perform process: %v", err)
	}

	schedule, err := NewScheduleRepository(f.db).FindByFileID(ctx, file.ID)
	if err != nil {
		t.Fatalf("find schedule: %v", err)
	}
	if schedule == nil || len(schedule.Value) != 2 {
		t.Fatalf("expected 2 schedule lines, got %+v", schedule)
	}
	if schedule.Value[0].Price != "100" {
		t.Fatalf("unexpected first line %+v", schedule.Value[0])
	}

	var version models.QuoteVersion
	if err := f.db.First(&version, "id = ?", f.version.ID).Error; err != nil {
		t.Fatalf("load version: %v", err)
	}
	if version.ScheduleFileID == nil || *version.ScheduleFileID != file.ID {
		t.Fatalf("expected schedule attached, got %v", version.ScheduleFileID)
	}
}

func TestPerformProcessGuardsTerminalStates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	path := f.writeFile(t, "list.csv", "Product No.\nA100\n")

	t.Run("handled file is a no-op", func(t *testing.T) {
		file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)
		now := time.Now().UTC()
		file.HandledAt = &now
		file.State = enums.QuoteFileStateHandled

		if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}

		var count int64
		if err := f.db.Model(&models.ImportedRow{}).
			Where("quote_file_id = ?", file.ID).Count(&count).Error; err != nil {
			t.Fatalf("count rows: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no reprocessing, got %d rows", count)
		}
	})

	t.Run("exception file is skipped", func(t *testing.T) {
		file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)
		code := ExceptionNoRows
		file.ExceptionCode = &code
		file.State = enums.QuoteFileStateException

		err := f.svc.PerformProcess(ctx, f.quote, file, Options{})
		if !errors.IsCode(err, errors.CodeStateConflict) {
			t.Fatalf("expected state conflict, got %v", err)
		}
	})

	t.Run("new separator reopens an exception file", func(t *testing.T) {
		file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)
		code := ExceptionNoRows
		if err := f.repo.SetException(ctx, file.ID, code, "no rows"); err != nil {
			t.Fatalf("seed exception: %v", err)
		}
		file.ExceptionCode = &code
		file.State = enums.QuoteFileStateException

		separator := ","
		if err := f.svc.PerformProcess(ctx, f.quote, file, Options{Separator: &separator}); err != nil {
			t.Fatalf("perform process: %v", err)
		}

		stored, err := f.repo.FindFile(ctx, file.ID)
		if err != nil {
			t.Fatalf("find file: %v", err)
		}
		if stored.ExceptionCode != nil || stored.State != enums.QuoteFileStateHandled {
			t.Fatalf("expected exception cleared and file handled, got %+v", stored)
		}
		if stored.DataSelectSeparator == nil || *stored.DataSelectSeparator != separator {
			t.Fatalf("expected separator recorded, got %v", stored.DataSelectSeparator)
		}
	})
}

func TestPerformProcessRejectsInvalidPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := f.writeFile(t, "list.csv", "Product No.\nA100\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	page := 0
	err := f.svc.PerformProcess(context.Background(), f.quote, file, Options{Page: &page})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessQueuedClaimsAndProcesses(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	path := f.writeFile(t, "list.csv", "Product No.\nA100\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	processed, err := f.svc.ProcessQueued(ctx, 10)
	if err != nil {
		t.Fatalf("process queued: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed file, got %d", processed)
	}

	stored, err := f.repo.FindFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if stored.State != enums.QuoteFileStateHandled {
		t.Fatalf("expected handled state, got %s", stored.State)
	}

	// Nothing left to claim.
	processed, err = f.svc.ProcessQueued(ctx, 10)
	if err != nil {
		t.Fatalf("process queued again: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected empty batch, got %d", processed)
	}
}

func TestPerformProcessAutomapClearsStaleMappings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedTemplateField(t, "product_no")

	stale := models.FieldColumnMapping{
		ID:                 uuid.New(),
		QuoteVersionID:     f.version.ID,
		TemplateFieldID:    uuid.New(),
		ImportableColumnID: uuid.New(),
	}
	if err := f.db.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale mapping: %v", err)
	}

	// No header matches a template field, so the automap intersection is
	// empty. The stale binding must still be detached and the file stamped.
	path := f.writeFile(t, "list.csv", "Zone\nnorth\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
		t.Fatalf("perform process: %v", err)
	}

	stored, err := f.repo.FindFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if stored.AutomappedAt == nil {
		t.Fatal("expected automapped stamp despite empty mapping set")
	}

	var count int64
	if err := f.db.Model(&models.FieldColumnMapping{}).
		Where("quote_version_id = ?", f.version.ID).Count(&count).Error; err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected stale mappings detached, got %d", count)
	}
}

func TestPerformProcessFailsWhenFileLockHeld(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	path := f.writeFile(t, "list.csv", "Product No.\nA100\n")
	file := f.seedFile(t, enums.QuoteFileTypePriceList, enums.FileFormatCSV, path)

	key := f.lockStore.LockKey(lock.UpdateQuoteFileKey(file.ID))
	if ok, _ := f.lockStore.SetNX(ctx, key, "other-owner", time.Minute); !ok {
		t.Fatal("failed to seed held lock")
	}

	err := f.svc.PerformProcess(ctx, f.quote, file, Options{})
	if !errors.IsCode(err, errors.CodeLockTimeout) {
		t.Fatalf("expected LOCK_TIMEOUT, got %v", err)
	}

	// The outside holder was the only obstacle: once released, the whole
	// pipeline runs to completion under the front's own lock.
	if err := f.lockStore.Del(ctx, key); err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if err := f.svc.PerformProcess(ctx, f.quote, file, Options{}); err != nil {
		t.Fatalf("perform process: %v", err)
	}

	stored, err := f.repo.FindFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if stored.State != enums.QuoteFileStateHandled {
		t.Fatalf("expected handled state, got %s", stored.State)
	}
}
