package mappedrows

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/errors"
)

// Spreadsheet serials count days since this epoch.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	serialRe = regexp.MustCompile(`^\d{5}$`)
	priceRe  = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
)

// Projector derives typed mapped rows from a file's imported rows.
type Projector struct {
	imported  *ingest.Repository
	chunkSize int
}

func NewProjector(imported *ingest.Repository, chunkSize int) *Projector {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Projector{imported: imported, chunkSize: chunkSize}
}

// Project reads the file's imported rows from imported_page onward in chunks
// and derives the full replacement mapped-row set for the version. Rows with
// no identifying data (product, description and serial all blank) are
// dropped. The second return value counts dropped rows.
func (p *Projector) Project(ctx context.Context, file *models.QuoteFile, versionID uuid.UUID, mapping RowMapping, settings Settings) ([]models.MappedRow, int, error) {
	if file == nil {
		return nil, 0, errors.New(errors.CodeValidation, "quote file is required")
	}
	settings = settings.normalized()

	var out []models.MappedRow
	dropped := 0
	offset := 0

	for {
		chunk, err := p.imported.FindPage(ctx, file.ID, file.ImportedPage, offset, p.chunkSize)
		if err != nil {
			return nil, 0, errors.Wrap(errors.CodeInternal, err, "reading imported rows")
		}
		if len(chunk) == 0 {
			break
		}
		offset += len(chunk)

		for _, imported := range chunk {
			row, keep := p.deriveRow(imported, file, versionID, mapping, settings)
			if !keep {
				dropped++
				continue
			}
			out = append(out, row)
		}

		if len(chunk) < p.chunkSize {
			break
		}
	}

	return out, dropped, nil
}

func (p *Projector) deriveRow(imported models.ImportedRow, file *models.QuoteFile, versionID uuid.UUID, mapping RowMapping, settings Settings) (models.MappedRow, bool) {
	row := models.MappedRow{
		ID:             uuid.New(),
		QuoteFileID:    file.ID,
		QuoteVersionID: versionID,
		IsOnePay:       imported.IsOnePay,
	}

	row.ProductNo = textField(imported, mapping.ProductNo)
	row.ServiceSKU = textField(imported, mapping.ServiceSKU)
	row.Description = textField(imported, mapping.Description)
	row.SerialNo = textField(imported, mapping.SerialNo)
	row.PricingDocument = textField(imported, mapping.PricingDocument)
	row.SystemHandle = textField(imported, mapping.SystemHandle)
	row.Searchable = textField(imported, mapping.Searchable)
	row.ServiceLevelDescription = textField(imported, mapping.ServiceLevelDescription)

	if blank(row.ProductNo) && blank(row.Description) && blank(row.SerialNo) {
		return models.MappedRow{}, false
	}

	row.DateFrom = parseDate(rawField(imported, mapping.DateFrom), settings.DefaultDateFrom)
	row.DateTo = parseDate(rawField(imported, mapping.DateTo), settings.DefaultDateTo)
	row.Qty = parseQty(rawField(imported, mapping.Qty), settings.DefaultQty)

	parsed := parsePrice(rawField(imported, mapping.Price))
	row.OriginalPrice = parsed

	price := parsed
	if !imported.IsOnePay && settings.CalculateListPrice {
		if months := wholeMonths(row.DateFrom, row.DateTo); months > 0 {
			price = price.Mul(decimal.NewFromInt(int64(months)))
		}
	}
	row.Price = price.Mul(settings.ExchangeRate)

	return row, true
}

func rawField(row models.ImportedRow, columnID uuid.UUID) string {
	if columnID == uuid.Nil {
		return ""
	}
	value, ok := row.ColumnsData.ValueFor(columnID)
	if !ok || value == nil {
		return ""
	}
	return *value
}

func textField(row models.ImportedRow, columnID uuid.UUID) *string {
	value := strings.TrimSpace(rawField(row, columnID))
	if value == "" {
		return nil
	}
	return &value
}

func blank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

// parseDate accepts 5-digit spreadsheet day serials, then free-text dates,
// then the configured default.
func parseDate(raw string, fallback *time.Time) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	if serialRe.MatchString(value) {
		days, err := strconv.Atoi(value)
		if err == nil {
			parsed := serialEpoch.AddDate(0, 0, days)
			return &parsed
		}
	}
	if parsed, err := dateparse.ParseAny(value); err == nil {
		normalized := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &normalized
	}
	return fallback
}

func parseQty(raw string, fallback int) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	if qty, err := strconv.Atoi(value); err == nil {
		return qty
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		return int(parsed)
	}
	return fallback
}

// parsePrice extracts the first numeric token from possibly formatted text
// ("$1,234.50/yr" → 1234.50). Unparseable values yield zero.
func parsePrice(raw string) decimal.Decimal {
	match := priceRe.FindString(raw)
	if match == "" {
		return decimal.Zero
	}
	cleaned := strings.ReplaceAll(match, ",", "")
	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// wholeMonths counts full calendar months between the dates; partial months
// round down.
func wholeMonths(from, to *time.Time) int {
	if from == nil || to == nil || to.Before(*from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
