package enums

import "fmt"

// QuoteFileType distinguishes the two ingestible document kinds.
type QuoteFileType string

const (
	QuoteFileTypePriceList       QuoteFileType = "distributor_price_list"
	QuoteFileTypePaymentSchedule QuoteFileType = "payment_schedule"
)

var validQuoteFileTypes = []QuoteFileType{
	QuoteFileTypePriceList,
	QuoteFileTypePaymentSchedule,
}

// String returns the literal string for the type.
func (t QuoteFileType) String() string {
	return string(t)
}

// IsValid reports whether the type is known.
func (t QuoteFileType) IsValid() bool {
	for _, candidate := range validQuoteFileTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseQuoteFileType converts raw input into a QuoteFileType.
func ParseQuoteFileType(value string) (QuoteFileType, error) {
	for _, candidate := range validQuoteFileTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote file type %q", value)
}
