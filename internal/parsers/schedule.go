package parsers

import (
	"context"
	"strings"

	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

// ExtractSchedule pulls {from, to, price} payment lines out of a parsed page.
// Column positions are located by header text, falling back to the first
// three columns. Malformed lines are logged and skipped; the remainder is
// still returned (partial success).
func ExtractSchedule(ctx context.Context, logg *logger.Logger, page Page) types.ScheduleLines {
	fromIdx, toIdx, priceIdx := locateScheduleColumns(page.Headers)

	var lines types.ScheduleLines
	for i, row := range page.Rows {
		line := types.ScheduleLine{
			From:  cellAt(row, fromIdx),
			To:    cellAt(row, toIdx),
			Price: cellAt(row, priceIdx),
		}
		if line.From == "" || line.To == "" || line.Price == "" {
			if logg != nil {
				fields := map[string]any{"row": i + 1, "page": page.Name}
				logg.Warn(logg.WithFields(ctx, fields), "skipping malformed schedule line")
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func locateScheduleColumns(headers []string) (from, to, price int) {
	from, to, price = 0, 1, 2
	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		switch {
		case strings.Contains(h, "from") || strings.Contains(h, "start"):
			from = i
		case strings.Contains(h, "to") || strings.Contains(h, "end"):
			to = i
		case strings.Contains(h, "price") || strings.Contains(h, "amount"):
			price = i
		}
	}
	return from, to, price
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
