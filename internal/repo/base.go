// Package repo holds the shared repository foundation embedded by every
// domain repository.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle for a domain repository.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to ctx so query cancellation propagates. A nil
// context returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
