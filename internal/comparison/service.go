package comparison

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

const rowChunkSize = 500

// Result summarizes how two price list documents differ.
type Result struct {
	BaseFileID     uuid.UUID `json:"base_file_id"`
	TargetFileID   uuid.UUID `json:"target_file_id"`
	BaseRowCount   int       `json:"base_row_count"`
	TargetRowCount int       `json:"target_row_count"`

	SharedColumns     []string `json:"shared_columns"`
	BaseOnlyColumns   []string `json:"base_only_columns"`
	TargetOnlyColumns []string `json:"target_only_columns"`

	AddedRowKeys   []string `json:"added_row_keys"`
	RemovedRowKeys []string `json:"removed_row_keys"`
}

// Service compares two processed quote files of the same type.
type Service interface {
	Compare(ctx context.Context, baseFileID, targetFileID uuid.UUID) (*Result, error)
}

type service struct {
	files    *docprocess.Repository
	imported *ingest.Repository
	logg     *logger.Logger
}

func NewService(files *docprocess.Repository, imported *ingest.Repository, logg *logger.Logger) (Service, error) {
	if files == nil {
		return nil, errors.New(errors.CodeDependency, "quote file repository is required")
	}
	if imported == nil {
		return nil, errors.New(errors.CodeDependency, "imported rows repository is required")
	}
	return &service{files: files, imported: imported, logg: logg}, nil
}

// Compare diffs the two files' imported data: row counts, resolved column
// sets and the row keys present on only one side. Both files must be price
// lists of the same type; payment schedules carry no imported rows to diff.
func (s *service) Compare(ctx context.Context, baseFileID, targetFileID uuid.UUID) (*Result, error) {
	base, err := s.loadFile(ctx, baseFileID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadFile(ctx, targetFileID)
	if err != nil {
		return nil, err
	}

	if base.FileType != target.FileType {
		return nil, errors.New(errors.CodeDocumentComparison, "cannot compare files of different types")
	}
	if !base.IsPriceList() {
		return nil, errors.New(errors.CodeDocumentComparison, "only price list files can be compared")
	}

	baseRows, err := s.loadRows(ctx, base)
	if err != nil {
		return nil, err
	}
	targetRows, err := s.loadRows(ctx, target)
	if err != nil {
		return nil, err
	}

	baseColumns := columnSet(baseRows)
	targetColumns := columnSet(targetRows)
	baseKeys := keySet(baseRows)
	targetKeys := keySet(targetRows)

	result := &Result{
		BaseFileID:        base.ID,
		TargetFileID:      target.ID,
		BaseRowCount:      len(baseRows),
		TargetRowCount:    len(targetRows),
		SharedColumns:     intersect(baseColumns, targetColumns),
		BaseOnlyColumns:   subtract(baseColumns, targetColumns),
		TargetOnlyColumns: subtract(targetColumns, baseColumns),
		AddedRowKeys:      subtract(targetKeys, baseKeys),
		RemovedRowKeys:    subtract(baseKeys, targetKeys),
	}

	if s.logg != nil {
		fields := map[string]any{
			"base_file_id":   base.ID.String(),
			"target_file_id": target.ID.String(),
			"added":          len(result.AddedRowKeys),
			"removed":        len(result.RemovedRowKeys),
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "quote files compared")
	}
	return result, nil
}

func (s *service) loadFile(ctx context.Context, id uuid.UUID) (*models.QuoteFile, error) {
	file, err := s.files.FindFile(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading quote file")
	}
	if file == nil {
		return nil, errors.New(errors.CodeNotFound, "quote file not found")
	}
	return file, nil
}

func (s *service) loadRows(ctx context.Context, file *models.QuoteFile) ([]models.ImportedRow, error) {
	var all []models.ImportedRow
	offset := 0
	for {
		chunk, err := s.imported.FindPage(ctx, file.ID, file.ImportedPage, offset, rowChunkSize)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "loading imported rows")
		}
		all = append(all, chunk...)
		if len(chunk) < rowChunkSize {
			return all, nil
		}
		offset += len(chunk)
	}
}

// columnSet collects the distinct normalized headers referenced by the rows.
func columnSet(rows []models.ImportedRow) map[string]struct{} {
	set := map[string]struct{}{}
	for _, row := range rows {
		for _, cell := range row.ColumnsData {
			header := strings.ToLower(strings.TrimSpace(cell.Header))
			if header == "" {
				continue
			}
			set[header] = struct{}{}
		}
	}
	return set
}

// keySet builds one identity key per row from its flattened cell values.
func keySet(rows []models.ImportedRow) map[string]struct{} {
	set := map[string]struct{}{}
	for _, row := range rows {
		values := make([]string, 0, len(row.ColumnsData))
		for _, cell := range row.ColumnsData {
			if cell.Value == nil {
				continue
			}
			values = append(values, strings.TrimSpace(*cell.Value))
		}
		key := strings.Join(values, "|")
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

func intersect(a, b map[string]struct{}) []string {
	var out []string
	for key := range a {
		if _, ok := b[key]; ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func subtract(a, b map[string]struct{}) []string {
	var out []string
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
