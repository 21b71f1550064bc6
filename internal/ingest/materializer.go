package ingest

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/parsers"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
)

var onePayRe = regexp.MustCompile(`(?i)\b(return to|RTS)\b`)

// Materializer turns parsed pages into insertable imported rows. It is a pure
// transformation aside from column resolution, which may create temp columns
// inside the caller's transaction.
type Materializer struct {
	resolver *columns.Resolver
}

func NewMaterializer(resolver *columns.Resolver) *Materializer {
	return &Materializer{resolver: resolver}
}

// Materialize produces the full replacement row set for the file. The page
// counter starts at the file's imported_page and advances once per page,
// including pages with nil rows (cover/blank pages contribute no rows but
// still occupy a page number). The column allocation set resets per page so
// every page's headers resolve independently.
func (m *Materializer) Materialize(ctx context.Context, tx *gorm.DB, file *models.QuoteFile, pages []parsers.Page) ([]models.ImportedRow, error) {
	attributes := normalizeAttributes(pages)

	var rows []models.ImportedRow
	pageNo := file.ImportedPage
	if pageNo < 1 {
		pageNo = 1
	}

	for _, page := range pages {
		if !page.HasRows() {
			pageNo++
			continue
		}

		allocated := map[uuid.UUID]struct{}{}

		headerColumns := make([]uuid.UUID, len(page.Headers))
		for i, header := range page.Headers {
			if strings.TrimSpace(header) == "" {
				headerColumns[i] = uuid.Nil
				continue
			}
			id, err := m.resolver.Resolve(ctx, tx, header, allocated)
			if err != nil {
				return nil, err
			}
			allocated[id] = struct{}{}
			headerColumns[i] = id
		}

		attributeColumns := make([]uuid.UUID, len(attributes))
		for i, attr := range attributes {
			id, err := m.resolver.Resolve(ctx, tx, attr, allocated)
			if err != nil {
				return nil, err
			}
			allocated[id] = struct{}{}
			attributeColumns[i] = id
		}

		for _, cells := range page.Rows {
			row := models.ImportedRow{
				ID:          uuid.New(),
				QuoteFileID: file.ID,
				Page:        pageNo,
			}

			data := make(types.ColumnsData, 0, len(page.Headers)+len(attributes))
			var flattened []string

			for i, header := range page.Headers {
				if headerColumns[i] == uuid.Nil {
					continue
				}
				value := cellPtr(cells, i)
				if value != nil {
					flattened = append(flattened, *value)
				}
				data = append(data, types.ColumnData{
					ImportableColumnID: headerColumns[i],
					Header:             header,
					Value:              value,
				})
			}

			for i, attr := range attributes {
				value := attributeValue(page, attr)
				if value != nil {
					flattened = append(flattened, *value)
				}
				data = append(data, types.ColumnData{
					ImportableColumnID: attributeColumns[i],
					Header:             attr,
					Value:              value,
				})
			}

			row.ColumnsData = data
			row.IsOnePay = onePayRe.MatchString(strings.Join(flattened, " "))
			rows = append(rows, row)
		}

		pageNo++
	}

	return rows, nil
}

// normalizeAttributes returns the sorted set of attribute names that carry a
// non-empty value on at least one page. Pages missing a surfaced attribute
// get it null filled during row construction.
func normalizeAttributes(pages []parsers.Page) []string {
	surfaced := map[string]struct{}{}
	for _, page := range pages {
		for name, value := range page.Attributes {
			if strings.TrimSpace(value) != "" {
				surfaced[name] = struct{}{}
			}
		}
	}
	if len(surfaced) == 0 {
		return nil
	}
	names := make([]string, 0, len(surfaced))
	for name := range surfaced {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func attributeValue(page parsers.Page, name string) *string {
	value, ok := page.Attributes[name]
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func cellPtr(cells []string, idx int) *string {
	if idx >= len(cells) {
		return nil
	}
	value := cells[idx]
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
