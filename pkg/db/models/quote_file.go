package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/pkg/enums"
)

// QuoteFile is one uploaded source document (price list or payment
// schedule) moving through the processing pipeline.
type QuoteFile struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID uuid.UUID `gorm:"column:quote_id;type:uuid;not null;index"`

	FileType enums.QuoteFileType `gorm:"column:file_type;type:text;not null"`
	Format   enums.FileFormat    `gorm:"column:format;type:text;not null"`

	OriginalFilePath string `gorm:"column:original_file_path;not null"`
	OriginalFileName string `gorm:"column:original_file_name;not null"`

	// ImportedPage is the 1-based cursor into multi-page source documents.
	ImportedPage        int     `gorm:"column:imported_page;not null;default:1"`
	DataSelectSeparator *string `gorm:"column:data_select_separator"`

	State            enums.QuoteFileState `gorm:"column:state;type:text;not null;default:queued"`
	HandledAt        *time.Time           `gorm:"column:handled_at"`
	AutomappedAt     *time.Time           `gorm:"column:automapped_at"`
	ExceptionCode    *string              `gorm:"column:exception_code"`
	ExceptionMessage *string              `gorm:"column:exception_message"`

	Rows []ImportedRow `gorm:"foreignKey:QuoteFileID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsHandled reports whether the file reached its terminal success state.
func (f *QuoteFile) IsHandled() bool {
	return f.HandledAt != nil
}

// HasException reports whether the file carries an unresolved exception.
func (f *QuoteFile) HasException() bool {
	return f.ExceptionCode != nil
}

// IsPriceList reports whether the file is a distributor price list.
func (f *QuoteFile) IsPriceList() bool {
	return f.FileType == enums.QuoteFileTypePriceList
}

// IsPaymentSchedule reports whether the file is a payment schedule.
func (f *QuoteFile) IsPaymentSchedule() bool {
	return f.FileType == enums.QuoteFileTypePaymentSchedule
}
