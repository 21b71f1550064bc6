package parsers

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/quotehub/quotehub-backend/pkg/errors"
)

// ParseExcel reads a workbook and returns one page per sheet in workbook
// order. Sheets without a header row come back with nil headers and rows so
// the materializer can still advance its page counter over them.
func ParseExcel(r io.Reader) ([]Page, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "opening excel workbook")
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	pages := make([]Page, 0, len(sheets))

	for _, sheet := range sheets {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "reading excel sheet")
		}

		pages = append(pages, BuildPage(sheet, rows))
	}

	return pages, nil
}
