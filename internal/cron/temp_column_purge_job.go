package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/pkg/logger"
)

// referencedColumnSource lists the column ids still referenced by imported rows.
type referencedColumnSource interface {
	ReferencedColumnIDs(ctx context.Context) ([]uuid.UUID, error)
}

// tempColumnPurger removes temp columns outside the referenced set.
type tempColumnPurger interface {
	DeleteOrphanedTemp(ctx context.Context, referenced []uuid.UUID) (int64, error)
}

// TempColumnPurgeJobParams configure the temp column purge job.
type TempColumnPurgeJobParams struct {
	Logger  *logger.Logger
	Rows    referencedColumnSource
	Columns tempColumnPurger
}

// NewTempColumnPurgeJob builds the job that removes temp importable columns
// no longer referenced by any imported row. Temp columns accumulate as files
// are reprocessed with new headers; once their rows are replaced nothing
// points at them.
func NewTempColumnPurgeJob(params TempColumnPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rows == nil {
		return nil, fmt.Errorf("imported rows repository required")
	}
	if params.Columns == nil {
		return nil, fmt.Errorf("columns repository required")
	}
	return &tempColumnPurgeJob{
		logg:    params.Logger,
		rows:    params.Rows,
		columns: params.Columns,
	}, nil
}

type tempColumnPurgeJob struct {
	logg    *logger.Logger
	rows    referencedColumnSource
	columns tempColumnPurger
}

func (j *tempColumnPurgeJob) Name() string { return "temp-column-purge" }

func (j *tempColumnPurgeJob) Run(ctx context.Context) error {
	referenced, err := j.rows.ReferencedColumnIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing referenced columns: %w", err)
	}

	deleted, err := j.columns.DeleteOrphanedTemp(ctx, referenced)
	if err != nil {
		return fmt.Errorf("purging temp columns: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"referenced":      len(referenced),
		"columns_deleted": deleted,
	})
	j.logg.Info(logCtx, "temp column purge complete")
	return nil
}
