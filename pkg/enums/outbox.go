package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateQuote     OutboxAggregateType = "quote"
	AggregateQuoteFile OutboxAggregateType = "quote_file"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQuote,
	AggregateQuoteFile,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventQuoteFileProcessed       OutboxEventType = "quote_file_processed"
	EventQuoteFileException       OutboxEventType = "quote_file_exception"
	EventQuoteVersionForked       OutboxEventType = "quote_version_forked"
	EventGroupDescriptionChanged  OutboxEventType = "group_description_changed"
	EventMappedRowsReplaced       OutboxEventType = "mapped_rows_replaced"
	EventFieldMappingSynchronized OutboxEventType = "field_mapping_synchronized"
)

var validOutboxEventTypes = []OutboxEventType{
	EventQuoteFileProcessed,
	EventQuoteFileException,
	EventQuoteVersionForked,
	EventGroupDescriptionChanged,
	EventMappedRowsReplaced,
	EventFieldMappingSynchronized,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
