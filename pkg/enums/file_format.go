package enums

import (
	"fmt"
	"strings"
)

// FileFormat is the declared format of an uploaded quote file.
type FileFormat string

const (
	FileFormatCSV   FileFormat = "csv"
	FileFormatExcel FileFormat = "excel"
	FileFormatWord  FileFormat = "word"
	FileFormatPDF   FileFormat = "pdf"
)

var validFileFormats = []FileFormat{
	FileFormatCSV,
	FileFormatExcel,
	FileFormatWord,
	FileFormatPDF,
}

// String returns the literal string for the format.
func (f FileFormat) String() string {
	return string(f)
}

// IsValid reports whether the format is known.
func (f FileFormat) IsValid() bool {
	for _, candidate := range validFileFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFileFormat converts raw input into a FileFormat. Common file
// extensions normalize onto the four canonical formats.
func ParseFileFormat(value string) (FileFormat, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
	switch normalized {
	case "csv", "txt":
		return FileFormatCSV, nil
	case "excel", "xlsx", "xls":
		return FileFormatExcel, nil
	case "word", "docx", "doc":
		return FileFormatWord, nil
	case "pdf":
		return FileFormatPDF, nil
	}
	return "", fmt.Errorf("invalid file format %q", value)
}
