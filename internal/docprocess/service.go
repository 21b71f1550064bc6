package docprocess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/lock"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/metrics"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/outbox/payloads"
)

// Exception codes recorded on failed quote files.
const (
	ExceptionNoRows           = "no_rows"
	ExceptionNoSchedule       = "no_schedule"
	ExceptionProcessingFailed = "processing_failed"
)

// Options carries the caller's reprocessing overrides. A new page or
// separator reopens a file that previously ended in exception or handled.
type Options struct {
	Page      *int
	Separator *string
}

// Service is the document processor front: it runs the guard chain, drives
// the format-specific processor and records the outcome on the file.
type Service interface {
	PerformProcess(ctx context.Context, quote *models.Quote, file *models.QuoteFile, opts Options) error
	ProcessQueued(ctx context.Context, limit int) (int, error)
}

type service struct {
	db         *gorm.DB
	repo       *Repository
	mappings   *MappingRepository
	quotes     *quotes.Repository
	imported   *ingest.Repository
	columns    *columns.Repository
	registry   *Registry
	projection mappedrows.Service
	locks      *lock.Provider
	events     *outbox.Service
	stats      *metrics.ProcessingMetrics
	logg       *logger.Logger
}

func NewService(
	db *gorm.DB,
	repo *Repository,
	mappings *MappingRepository,
	quotesRepo *quotes.Repository,
	imported *ingest.Repository,
	columnsRepo *columns.Repository,
	registry *Registry,
	projection mappedrows.Service,
	locks *lock.Provider,
	events *outbox.Service,
	stats *metrics.ProcessingMetrics,
	logg *logger.Logger,
) (Service, error) {
	if db == nil {
		return nil, errors.New(errors.CodeDependency, "db is required")
	}
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "quote file repository is required")
	}
	if mappings == nil {
		return nil, errors.New(errors.CodeDependency, "mapping repository is required")
	}
	if quotesRepo == nil {
		return nil, errors.New(errors.CodeDependency, "quotes repository is required")
	}
	if imported == nil {
		return nil, errors.New(errors.CodeDependency, "imported rows repository is required")
	}
	if columnsRepo == nil {
		return nil, errors.New(errors.CodeDependency, "columns repository is required")
	}
	if registry == nil {
		return nil, errors.New(errors.CodeDependency, "processor registry is required")
	}
	if projection == nil {
		return nil, errors.New(errors.CodeDependency, "mapped rows service is required")
	}
	if locks == nil {
		return nil, errors.New(errors.CodeDependency, "lock provider is required")
	}
	return &service{
		db:         db,
		repo:       repo,
		mappings:   mappings,
		quotes:     quotesRepo,
		imported:   imported,
		columns:    columnsRepo,
		registry:   registry,
		projection: projection,
		locks:      locks,
		events:     events,
		stats:      stats,
		logg:       logg,
	}, nil
}

// PerformProcess runs the full pipeline for one quote file: guard chain,
// per-file lock, resubmission overrides, processor dispatch, automapping and
// outcome bookkeeping.
func (s *service) PerformProcess(ctx context.Context, quote *models.Quote, file *models.QuoteFile, opts Options) error {
	if quote == nil {
		return errors.New(errors.CodeValidation, "quote is required")
	}
	if file == nil {
		return errors.New(errors.CodeValidation, "quote file is required")
	}

	newPage := opts.Page != nil && *opts.Page != file.ImportedPage
	newSeparator := opts.Separator != nil &&
		(file.DataSelectSeparator == nil || *opts.Separator != *file.DataSelectSeparator)

	// Guard chain. A new page or separator reopens files that previously
	// ended in exception or handled; otherwise an exception is terminal and a
	// handled file is an idempotent no-op.
	if !newPage && !newSeparator {
		if file.HasException() {
			s.stats.IncOutcome(file.FileType.String(), file.Format.String(), "skipped")
			return errors.New(errors.CodeStateConflict, "file has an unresolved exception; resubmit with a new page or separator")
		}
		if file.IsHandled() {
			s.stats.IncOutcome(file.FileType.String(), file.Format.String(), "skipped")
			if s.logg != nil {
				fields := map[string]any{"quote_file_id": file.ID.String()}
				s.logg.Info(s.logg.WithFields(ctx, fields), "file already handled, skipping")
			}
			return nil
		}
	}

	return s.locks.WithLock(ctx, lock.UpdateQuoteFileKey(file.ID), func(ctx context.Context) error {
		started := time.Now()

		if err := s.prepare(ctx, file, opts); err != nil {
			return err
		}

		version, err := s.quotes.ActiveVersion(ctx, quote)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading active version")
		}
		if version == nil {
			return errors.New(errors.CodeNotFound, "quote has no active version")
		}

		if err := s.attach(ctx, version, file); err != nil {
			return err
		}

		processor, err := s.registry.Resolve(file)
		if err != nil {
			return s.fail(ctx, quote, file, started, err)
		}
		if err := processor.Process(ctx, file); err != nil {
			return s.fail(ctx, quote, file, started, err)
		}

		if file.IsPriceList() {
			mappings, fields, err := s.automap(ctx, version.ID, file)
			if err != nil {
				return s.fail(ctx, quote, file, started, err)
			}
			mapping := mappedrows.BuildMapping(mappings, fields)
			if err := s.projection.Project(ctx, file, version.ID, mapping, mappedrows.Settings{}); err != nil {
				return s.fail(ctx, quote, file, started, err)
			}
		}

		return s.succeed(ctx, quote, file, started)
	})
}

// ProcessQueued claims queued files and processes each one. Failures are
// aggregated so one bad file never stalls the rest of the batch.
func (s *service) ProcessQueued(ctx context.Context, limit int) (int, error) {
	files, err := s.repo.ClaimQueued(ctx, limit)
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "claiming queued files")
	}

	var errs error
	processed := 0
	for i := range files {
		file := &files[i]
		quote, err := s.quotes.FindQuote(ctx, file.QuoteID)
		if err == nil && quote == nil {
			err = errors.New(errors.CodeNotFound, "quote not found")
		}
		if err == nil {
			err = s.PerformProcess(ctx, quote, file, Options{})
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		processed++
	}
	return processed, errs
}

// prepare applies resubmission overrides and clears any previous exception
// before the processor runs.
func (s *service) prepare(ctx context.Context, file *models.QuoteFile, opts Options) error {
	if opts.Page != nil {
		if *opts.Page < 1 {
			return errors.New(errors.CodeValidation, "page must be at least 1")
		}
		if err := s.repo.UpdateImportedPage(ctx, file.ID, *opts.Page); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating imported page")
		}
		file.ImportedPage = *opts.Page
	}
	if opts.Separator != nil {
		if err := s.repo.UpdateSeparator(ctx, file.ID, *opts.Separator); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating separator")
		}
		file.DataSelectSeparator = opts.Separator
	}

	if err := s.repo.ClearException(ctx, file.ID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "clearing exception")
	}
	file.ExceptionCode = nil
	file.ExceptionMessage = nil

	if err := s.repo.UpdateState(ctx, file.ID, enums.QuoteFileStateProcessing); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "updating state")
	}
	file.State = enums.QuoteFileStateProcessing
	return nil
}

// attach points the version at the file being processed. A price list
// invalidates the version's row groups: their row ids reference rows that
// are about to be replaced.
func (s *service) attach(ctx context.Context, version *models.QuoteVersion, file *models.QuoteFile) error {
	if file.IsPriceList() {
		if err := s.quotes.AttachPriceListFile(ctx, version.ID, file.ID); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "attaching price list file")
		}
		if err := s.quotes.UpdateGroupDescription(ctx, version.ID, nil, nil); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "resetting row groups")
		}
		return nil
	}
	if err := s.quotes.AttachScheduleFile(ctx, version.ID, file.ID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "attaching schedule file")
	}
	return nil
}

// automap derives field-column mappings from the first imported row: every
// template field whose name matches a resolved column name gets bound. The
// whole mapping set is replaced even when nothing matches, so a reprocessed
// file never keeps bindings from a previous parse. Returns the new mappings
// together with the template fields they were matched against.
func (s *service) automap(ctx context.Context, versionID uuid.UUID, file *models.QuoteFile) ([]models.FieldColumnMapping, []models.TemplateField, error) {
	fields, err := s.mappings.ListTemplateFields(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "loading template fields")
	}

	first, err := s.imported.FirstRow(ctx, file.ID, file.ImportedPage)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "loading first imported row")
	}

	var mappings []models.FieldColumnMapping
	if first != nil {
		ids := make([]uuid.UUID, 0, len(first.ColumnsData))
		for _, cell := range first.ColumnsData {
			ids = append(ids, cell.ImportableColumnID)
		}
		resolved, err := s.columns.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, errors.Wrap(errors.CodeInternal, err, "loading resolved columns")
		}

		byName := make(map[string]uuid.UUID, len(resolved))
		for _, column := range resolved {
			if _, ok := byName[column.Name]; !ok {
				byName[column.Name] = column.ID
			}
		}

		for _, field := range fields {
			columnID, ok := byName[field.Name]
			if !ok {
				continue
			}
			mappings = append(mappings, models.FieldColumnMapping{
				ID:                 uuid.New(),
				QuoteVersionID:     versionID,
				TemplateFieldID:    field.ID,
				ImportableColumnID: columnID,
				IsDefaultEnabled:   true,
			})
		}
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.mappings.WithTx(tx).ReplaceMappings(ctx, versionID, mappings); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).MarkAutomapped(ctx, file.ID, now); err != nil {
			return err
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventFieldMappingSynchronized,
				AggregateType: enums.AggregateQuote,
				AggregateID:   file.QuoteID,
				Data: payloads.FieldMappingSynchronizedEvent{
					QuoteVersionID: versionID,
					MappingCount:   len(mappings),
					Automapped:     true,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, err, "replacing field mappings")
	}
	file.AutomappedAt = &now

	if s.logg != nil {
		logFields := map[string]any{
			"quote_file_id": file.ID.String(),
			"mappings":      len(mappings),
		}
		s.logg.Info(s.logg.WithFields(ctx, logFields), "field mappings automapped")
	}
	return mappings, fields, nil
}

// succeed stamps the terminal success state and emits the processed event.
func (s *service) succeed(ctx context.Context, quote *models.Quote, file *models.QuoteFile, started time.Time) error {
	rowCount := 0
	if file.IsPriceList() {
		count, err := s.imported.CountFrom(ctx, file.ID, file.ImportedPage)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "counting imported rows")
		}
		rowCount = int(count)
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkHandled(ctx, file.ID, now); err != nil {
			return err
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventQuoteFileProcessed,
				AggregateType: enums.AggregateQuoteFile,
				AggregateID:   file.ID,
				Data: payloads.QuoteFileProcessedEvent{
					QuoteFileID:  file.ID,
					QuoteID:      quote.ID,
					FileType:     file.FileType,
					Format:       file.Format,
					ImportedPage: file.ImportedPage,
					RowCount:     rowCount,
					HandledAt:    now,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking file handled")
	}
	file.HandledAt = &now
	file.State = enums.QuoteFileStateHandled

	s.stats.ObserveDuration(file.FileType.String(), file.Format.String(), time.Since(started))
	s.stats.IncOutcome(file.FileType.String(), file.Format.String(), "handled")
	s.stats.AddRows(file.FileType.String(), rowCount)

	if s.logg != nil {
		fields := map[string]any{
			"quote_id":      quote.ID.String(),
			"quote_file_id": file.ID.String(),
			"rows":          rowCount,
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "quote file processed")
	}
	return nil
}

// fail records the exception on the file and emits the exception event. The
// original error is returned to the caller.
func (s *service) fail(ctx context.Context, quote *models.Quote, file *models.QuoteFile, started time.Time, cause error) error {
	code := ExceptionProcessingFailed
	if errors.IsCode(cause, errors.CodeNoDataFound) {
		if file.IsPaymentSchedule() {
			code = ExceptionNoSchedule
		} else {
			code = ExceptionNoRows
		}
	}
	message := cause.Error()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SetException(ctx, file.ID, code, message); err != nil {
			return err
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventQuoteFileException,
				AggregateType: enums.AggregateQuoteFile,
				AggregateID:   file.ID,
				Data: payloads.QuoteFileExceptionEvent{
					QuoteFileID: file.ID,
					QuoteID:     quote.ID,
					FileType:    file.FileType,
					Code:        code,
					Message:     message,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return multierr.Append(cause, err)
	}
	file.State = enums.QuoteFileStateException
	file.ExceptionCode = &code
	file.ExceptionMessage = &message

	s.stats.ObserveDuration(file.FileType.String(), file.Format.String(), time.Since(started))
	s.stats.IncOutcome(file.FileType.String(), file.Format.String(), "exception")

	if s.logg != nil {
		fields := map[string]any{
			"quote_id":      quote.ID.String(),
			"quote_file_id": file.ID.String(),
			"code":          code,
		}
		s.logg.Error(s.logg.WithFields(ctx, fields), "quote file processing failed", cause)
	}
	return cause
}
