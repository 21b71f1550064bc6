package enums

import "fmt"

// QuoteFileState tracks a quote file through the processing pipeline.
type QuoteFileState string

const (
	QuoteFileStateQueued     QuoteFileState = "queued"
	QuoteFileStateProcessing QuoteFileState = "processing"
	QuoteFileStateHandled    QuoteFileState = "handled"
	QuoteFileStateException  QuoteFileState = "exception"
)

var validQuoteFileStates = []QuoteFileState{
	QuoteFileStateQueued,
	QuoteFileStateProcessing,
	QuoteFileStateHandled,
	QuoteFileStateException,
}

// String returns the literal string for the state.
func (s QuoteFileState) String() string {
	return string(s)
}

// IsValid reports whether the state is known.
func (s QuoteFileState) IsValid() bool {
	for _, candidate := range validQuoteFileStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseQuoteFileState converts raw input into a QuoteFileState.
func ParseQuoteFileState(value string) (QuoteFileState, error) {
	for _, candidate := range validQuoteFileStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote file state %q", value)
}
