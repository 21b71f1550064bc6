package parsers

import "strings"

// Page is one tabular unit extracted from a quote file: a CSV file yields a
// single page, an Excel workbook one page per sheet.
type Page struct {
	Name    string
	Headers []string
	Rows    [][]string

	// Attributes are document-level values some parsers surface alongside the
	// table (system handle, pricing document, searchable id). They are merged
	// into every row during materialization.
	Attributes map[string]string
}

// HasRows reports whether the page carries any data rows.
func (p Page) HasRows() bool {
	return len(p.Rows) > 0
}

// BuildPage assembles a page from raw rows: the first non-empty row becomes
// the header, blank rows are dropped.
func BuildPage(name string, rows [][]string) Page {
	headers, data := splitHeaderRow(rows)
	page := Page{Name: name, Headers: headers}
	for _, row := range data {
		if rowIsEmpty(row) {
			continue
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// rowIsEmpty reports whether every cell is blank after trimming.
func rowIsEmpty(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// splitHeaderRow separates the first non-empty row from the remainder. Rows
// before the header are discarded.
func splitHeaderRow(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		if !rowIsEmpty(row) {
			return row, rows[i+1:]
		}
	}
	return nil, nil
}
