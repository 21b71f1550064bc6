package parsers

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/quotehub/quotehub-backend/pkg/errors"
)

var csvCandidateSeparators = []rune{',', ';', '\t'}

// GuessSeparator inspects the first line and returns the candidate separator
// with the highest occurrence count. Defaults to comma.
func GuessSeparator(firstLine string) rune {
	best := ','
	bestCount := 0
	for _, candidate := range csvCandidateSeparators {
		if count := strings.Count(firstLine, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

// ParseCSV reads the full document as a single page. When separator is empty
// the separator is guessed from the first line; a user-supplied separator
// (the file's data_select_separator) always wins.
func ParseCSV(r io.Reader, separator string) ([]Page, error) {
	buffered := bufio.NewReader(r)

	trimmed := strings.TrimSpace(separator)
	var comma rune
	if separator == "\t" || trimmed == "\\t" {
		comma = '\t'
	} else if trimmed != "" {
		comma = []rune(trimmed)[0]
	} else {
		peeked, err := buffered.Peek(4096)
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.CodeValidation, err, "reading csv header")
		}
		firstLine, _, _ := strings.Cut(string(peeked), "\n")
		comma = GuessSeparator(firstLine)
	}

	reader := csv.NewReader(buffered)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "reading csv row")
		}
		rows = append(rows, record)
	}

	return []Page{BuildPage("csv", rows)}, nil
}
