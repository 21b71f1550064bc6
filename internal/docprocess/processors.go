package docprocess

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/parsers"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/docengine"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/storage"
)

// sourceFunc extracts tabular pages from the file's stored content.
type sourceFunc func(ctx context.Context, file *models.QuoteFile) ([]parsers.Page, error)

// sinkFunc persists the extracted pages for the file.
type sinkFunc func(ctx context.Context, file *models.QuoteFile, pages []parsers.Page) error

// parseProcessor pairs one page source with one persistence sink. All
// concrete processors are assembled from these two halves.
type parseProcessor struct {
	source sourceFunc
	sink   sinkFunc
}

func (p *parseProcessor) Process(ctx context.Context, file *models.QuoteFile) error {
	pages, err := p.source(ctx, file)
	if err != nil {
		return err
	}
	return p.sink(ctx, file, pages)
}

// fallbackProcessor tries the primary processor and, when it yields no data,
// delegates to the legacy fallback instead of failing outright.
type fallbackProcessor struct {
	primary  Processor
	fallback Processor
}

func (f *fallbackProcessor) Process(ctx context.Context, file *models.QuoteFile) error {
	err := f.primary.Process(ctx, file)
	if err == nil {
		return nil
	}
	if f.fallback != nil && errors.IsCode(err, errors.CodeNoDataFound) {
		return f.fallback.Process(ctx, file)
	}
	return err
}

// pipeline holds the shared persistence halves of every processor.
type pipeline struct {
	db           *gorm.DB
	materializer *ingest.Materializer
	rows         ingest.Service
	schedules    *ScheduleRepository
	logg         *logger.Logger
}

// persistPriceList materializes the pages into imported rows and swaps them
// in. Column resolution may mint temp columns, so materialization and the row
// swap share one transaction: a refused or failed swap rolls the minted
// columns back with it. The front holds the file's update lock.
func (p *pipeline) persistPriceList(ctx context.Context, file *models.QuoteFile, pages []parsers.Page) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := p.materializer.Materialize(ctx, tx, file, pages)
		if err != nil {
			return err
		}
		return p.rows.ReplaceRows(ctx, tx, file, rows)
	})
}

// persistSchedule extracts the payment lines from the file's current page
// and replaces its schedule record.
func (p *pipeline) persistSchedule(ctx context.Context, file *models.QuoteFile, pages []parsers.Page) error {
	page, ok := pageAt(pages, file.ImportedPage)
	if !ok {
		return errors.New(errors.CodeNoDataFound, fmt.Sprintf("document has no page %d", file.ImportedPage))
	}

	lines := parsers.ExtractSchedule(ctx, p.logg, page)
	if len(lines) == 0 {
		return errors.New(errors.CodeNoDataFound, "document produced no schedule lines")
	}

	if err := p.schedules.Upsert(ctx, file.ID, lines); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "persisting schedule lines")
	}
	return nil
}

// pageAt returns the 1-based page of a multi-page document. Single-page
// sources always yield their only page.
func pageAt(pages []parsers.Page, number int) (parsers.Page, bool) {
	if len(pages) == 0 {
		return parsers.Page{}, false
	}
	if len(pages) == 1 {
		return pages[0], true
	}
	idx := number - 1
	if idx < 0 || idx >= len(pages) {
		return parsers.Page{}, false
	}
	return pages[idx], true
}

// csvSource parses the stored file as delimiter-separated text, honoring the
// file's recorded separator override.
func csvSource(store *storage.Store) sourceFunc {
	return func(_ context.Context, file *models.QuoteFile) ([]parsers.Page, error) {
		reader, err := store.Open(file.OriginalFilePath)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "opening quote file")
		}
		defer reader.Close()

		separator := ""
		if file.DataSelectSeparator != nil {
			separator = *file.DataSelectSeparator
		}
		return parsers.ParseCSV(reader, separator)
	}
}

// excelSource parses the stored file as a workbook, one page per sheet.
func excelSource(store *storage.Store) sourceFunc {
	return func(_ context.Context, file *models.QuoteFile) ([]parsers.Page, error) {
		reader, err := store.Open(file.OriginalFilePath)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "opening quote file")
		}
		defer reader.Close()
		return parsers.ParseExcel(reader)
	}
}

// engineSource submits the stored file to the remote parsing engine. A parse
// that yields no pages comes back as a no-data error so fallback processors
// can take over.
func engineSource(engine *docengine.Client, store *storage.Store) sourceFunc {
	return func(ctx context.Context, file *models.QuoteFile) ([]parsers.Page, error) {
		reader, err := store.Open(file.OriginalFilePath)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "opening quote file")
		}
		defer reader.Close()

		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "reading quote file")
		}

		remote, err := engine.Parse(ctx, file.Format.String(), content)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "parsing via document engine")
		}
		if len(remote) == 0 {
			return nil, errors.New(errors.CodeNoDataFound, "document engine found no tables")
		}

		pages := make([]parsers.Page, 0, len(remote))
		for _, page := range remote {
			pages = append(pages, parsers.BuildPage(page.Name, page.Rows))
		}
		return pages, nil
	}
}

// ProcessorDeps carries everything the default processor set needs.
type ProcessorDeps struct {
	DB           *gorm.DB
	Store        *storage.Store
	Engine       *docengine.Client
	Materializer *ingest.Materializer
	Rows         ingest.Service
	Schedules    *ScheduleRepository
	Logg         *logger.Logger
}

// NewDefaultRegistry wires the standard processor set: local csv/excel
// parsing for both file types, and remote-engine parsing for word/pdf with a
// plain-text legacy fallback.
func NewDefaultRegistry(deps ProcessorDeps) *Registry {
	pipe := &pipeline{
		db:           deps.DB,
		materializer: deps.Materializer,
		rows:         deps.Rows,
		schedules:    deps.Schedules,
		logg:         deps.Logg,
	}

	priceList := func(src sourceFunc) Processor {
		return &parseProcessor{source: src, sink: pipe.persistPriceList}
	}
	schedule := func(src sourceFunc) Processor {
		return &parseProcessor{source: src, sink: pipe.persistSchedule}
	}

	csv := csvSource(deps.Store)
	excel := excelSource(deps.Store)
	engine := engineSource(deps.Engine, deps.Store)

	registry := NewRegistry()
	registry.Register(enums.QuoteFileTypePriceList, enums.FileFormatCSV, priceList(csv))
	registry.Register(enums.QuoteFileTypePriceList, enums.FileFormatExcel, priceList(excel))
	registry.Register(enums.QuoteFileTypePaymentSchedule, enums.FileFormatCSV, schedule(csv))
	registry.Register(enums.QuoteFileTypePaymentSchedule, enums.FileFormatExcel, schedule(excel))

	for _, format := range []enums.FileFormat{enums.FileFormatWord, enums.FileFormatPDF} {
		registry.Register(enums.QuoteFileTypePriceList, format, &fallbackProcessor{
			primary:  priceList(engine),
			fallback: priceList(csv),
		})
		registry.Register(enums.QuoteFileTypePaymentSchedule, format, &fallbackProcessor{
			primary:  schedule(engine),
			fallback: schedule(csv),
		})
	}

	return registry
}
