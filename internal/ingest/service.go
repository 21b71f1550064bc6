package ingest

import (
	"context"

	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

// Service persists materialized row sets. The processing front owns the
// per-file update lock; the service itself takes none.
type Service interface {
	ReplaceRows(ctx context.Context, tx *gorm.DB, file *models.QuoteFile, rows []models.ImportedRow) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "ingest repository is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ReplaceRows swaps the file's imported rows for the provided set inside the
// caller's transaction, so the swap commits atomically with any temp columns
// minted during materialization. An empty set is refused so a bad parse never
// wipes previously good data.
func (s *service) ReplaceRows(ctx context.Context, tx *gorm.DB, file *models.QuoteFile, rows []models.ImportedRow) error {
	if file == nil {
		return errors.New(errors.CodeValidation, "quote file is required")
	}
	if len(rows) == 0 {
		return errors.New(errors.CodeNoDataFound, "document produced no rows")
	}

	if err := s.repo.WithTx(tx).ReplaceAll(ctx, file.ID, rows); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "replacing imported rows")
	}
	if s.logg != nil {
		fields := map[string]any{"rows": len(rows), "quote_file_id": file.ID.String()}
		s.logg.Info(s.logg.WithFields(ctx, fields), "imported rows replaced")
	}
	return nil
}
