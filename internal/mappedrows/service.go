package mappedrows

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/outbox/payloads"
)

// Service projects and persists mapped rows for a quote version. The
// processing front owns the per-file update lock while Project runs.
type Service interface {
	Project(ctx context.Context, file *models.QuoteFile, versionID uuid.UUID, mapping RowMapping, settings Settings) error
	ListByVersion(ctx context.Context, versionID uuid.UUID, offset, limit int) ([]models.MappedRow, error)
}

type service struct {
	projector *Projector
	repo      *Repository
	events    *outbox.Service
	logg      *logger.Logger
}

func NewService(projector *Projector, repo *Repository, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if projector == nil {
		return nil, errors.New(errors.CodeDependency, "projector is required")
	}
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "mapped rows repository is required")
	}
	return &service{projector: projector, repo: repo, events: events, logg: logg}, nil
}

// Project derives the replacement row set in memory first, then swaps it in
// inside one transaction. An unmapped version yields an empty set, which
// clears any rows left over from a previous mapping.
func (s *service) Project(ctx context.Context, file *models.QuoteFile, versionID uuid.UUID, mapping RowMapping, settings Settings) error {
	rows, dropped, err := s.projector.Project(ctx, file, versionID, mapping, settings)
	if err != nil {
		return err
	}

	err = s.repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceAll(ctx, file.ID, versionID, rows); err != nil {
			return err
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventMappedRowsReplaced,
				AggregateType: enums.AggregateQuoteFile,
				AggregateID:   file.ID,
				Data: payloads.MappedRowsReplacedEvent{
					QuoteFileID:    file.ID,
					QuoteVersionID: versionID,
					RowCount:       len(rows),
					DroppedCount:   dropped,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "replacing mapped rows")
	}

	if s.logg != nil {
		fields := map[string]any{
			"quote_file_id":    file.ID.String(),
			"quote_version_id": versionID.String(),
			"rows":             len(rows),
			"dropped":          dropped,
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "mapped rows replaced")
	}
	return nil
}

func (s *service) ListByVersion(ctx context.Context, versionID uuid.UUID, offset, limit int) ([]models.MappedRow, error) {
	return s.repo.ListByVersion(ctx, versionID, offset, limit)
}
