package models

import (
	"time"

	"github.com/google/uuid"
)

// Quote is the aggregate root owning all versions of a customer quote.
type Quote struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	ActiveVersionID *uuid.UUID `gorm:"column:active_version_id;type:uuid"`

	Versions []QuoteVersion `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
