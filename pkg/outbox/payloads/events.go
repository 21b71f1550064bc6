package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/pkg/enums"
)

// QuoteFileProcessedEvent reports that a quote file finished ingestion.
type QuoteFileProcessedEvent struct {
	QuoteFileID  uuid.UUID           `json:"quote_file_id"`
	QuoteID      uuid.UUID           `json:"quote_id"`
	FileType     enums.QuoteFileType `json:"file_type"`
	Format       enums.FileFormat    `json:"format"`
	ImportedPage int                 `json:"imported_page"`
	RowCount     int                 `json:"row_count"`
	HandledAt    time.Time           `json:"handled_at"`
}

// QuoteFileExceptionEvent reports a processing failure with its stable code.
type QuoteFileExceptionEvent struct {
	QuoteFileID uuid.UUID           `json:"quote_file_id"`
	QuoteID     uuid.UUID           `json:"quote_id"`
	FileType    enums.QuoteFileType `json:"file_type"`
	Code        string              `json:"code"`
	Message     string              `json:"message"`
}

// QuoteVersionForkedEvent is emitted when a copy-on-write fork creates a new
// writable version for an editing user.
type QuoteVersionForkedEvent struct {
	QuoteID         uuid.UUID `json:"quote_id"`
	SourceVersionID uuid.UUID `json:"source_version_id"`
	NewVersionID    uuid.UUID `json:"new_version_id"`
	UserID          uuid.UUID `json:"user_id"`
	VersionNumber   int       `json:"version_number"`
}

// GroupSnapshot is a compact name+count view of one row group, recorded on
// either side of a group mutation for the audit trail.
type GroupSnapshot struct {
	Name     string `json:"name"`
	RowCount int    `json:"row_count"`
}

// GroupDescriptionChangedEvent records a mutation of a version's row groups.
type GroupDescriptionChangedEvent struct {
	QuoteID        uuid.UUID       `json:"quote_id"`
	QuoteVersionID uuid.UUID       `json:"quote_version_id"`
	GroupID        string          `json:"group_id,omitempty"`
	Action         string          `json:"action"`
	Before         []GroupSnapshot `json:"before"`
	After          []GroupSnapshot `json:"after"`
}

// MappedRowsReplacedEvent reports a full projection rebuild for a file/version pair.
type MappedRowsReplacedEvent struct {
	QuoteFileID    uuid.UUID `json:"quote_file_id"`
	QuoteVersionID uuid.UUID `json:"quote_version_id"`
	RowCount       int       `json:"row_count"`
	DroppedCount   int       `json:"dropped_count"`
}

// FieldMappingSynchronizedEvent reports template field to column mapping changes.
type FieldMappingSynchronizedEvent struct {
	QuoteVersionID uuid.UUID `json:"quote_version_id"`
	MappingCount   int       `json:"mapping_count"`
	Automapped     bool      `json:"automapped"`
}
