// Package testdb provides an in-memory sqlite database with the QuoteHub
// schema for repository tests. Postgres-only defaults are omitted; tests set
// ids explicitly.
package testdb

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE users (
		id text PRIMARY KEY,
		email text NOT NULL UNIQUE,
		first_name text NOT NULL DEFAULT '',
		last_name text NOT NULL DEFAULT '',
		is_active integer NOT NULL DEFAULT 1,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE quotes (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		active_version_id text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE quote_versions (
		id text PRIMARY KEY,
		quote_id text NOT NULL,
		user_id text NOT NULL,
		version_number integer NOT NULL DEFAULT 1,
		group_description text,
		sort_group_description text,
		price_list_file_id text,
		schedule_file_id text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE quote_files (
		id text PRIMARY KEY,
		quote_id text NOT NULL,
		file_type text NOT NULL,
		format text NOT NULL,
		original_file_path text NOT NULL DEFAULT '',
		original_file_name text NOT NULL DEFAULT '',
		imported_page integer NOT NULL DEFAULT 1,
		data_select_separator text,
		state text NOT NULL DEFAULT 'queued',
		handled_at datetime,
		automapped_at datetime,
		exception_code text,
		exception_message text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE importable_columns (
		id text PRIMARY KEY,
		header text NOT NULL,
		name text NOT NULL,
		is_system integer NOT NULL DEFAULT 0,
		is_temp integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE importable_column_aliases (
		id text PRIMARY KEY,
		importable_column_id text NOT NULL,
		alias text NOT NULL,
		created_at datetime
	)`,
	`CREATE UNIQUE INDEX ux_importable_column_aliases_alias ON importable_column_aliases (alias)`,
	`CREATE TABLE imported_rows (
		id text PRIMARY KEY,
		quote_file_id text NOT NULL,
		page integer NOT NULL,
		columns_data text NOT NULL,
		is_one_pay integer NOT NULL DEFAULT 0,
		created_at datetime
	)`,
	`CREATE TABLE mapped_rows (
		id text PRIMARY KEY,
		quote_file_id text NOT NULL,
		quote_version_id text NOT NULL,
		replicated_row_id text,
		product_no text,
		service_sku text,
		description text,
		serial_no text,
		date_from datetime,
		date_to datetime,
		qty integer NOT NULL DEFAULT 1,
		price numeric NOT NULL DEFAULT 0,
		original_price numeric NOT NULL DEFAULT 0,
		pricing_document text,
		system_handle text,
		searchable text,
		service_level_description text,
		is_selected integer NOT NULL DEFAULT 0,
		is_one_pay integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE schedule_data (
		id text PRIMARY KEY,
		quote_file_id text NOT NULL UNIQUE,
		value text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE template_fields (
		id text PRIMARY KEY,
		name text NOT NULL UNIQUE,
		header text NOT NULL,
		created_at datetime
	)`,
	`CREATE TABLE field_column_mappings (
		id text PRIMARY KEY,
		quote_version_id text NOT NULL,
		template_field_id text NOT NULL,
		importable_column_id text NOT NULL,
		is_default_enabled integer NOT NULL DEFAULT 0,
		created_at datetime
	)`,
	`CREATE TABLE outbox_events (
		id text PRIMARY KEY,
		event_type text NOT NULL,
		aggregate_type text NOT NULL,
		aggregate_id text NOT NULL,
		payload text NOT NULL,
		created_at datetime,
		published_at datetime,
		attempt_count integer NOT NULL DEFAULT 0,
		last_error text
	)`,
	`CREATE TABLE outbox_dlq (
		id text PRIMARY KEY,
		event_id text NOT NULL,
		event_type text NOT NULL,
		aggregate_type text NOT NULL,
		aggregate_id text NOT NULL,
		payload_json text NOT NULL,
		error_message text,
		attempt_count integer NOT NULL DEFAULT 0,
		failed_at datetime,
		created_at datetime
	)`,
}

// New opens a fresh in-memory database seeded with the full schema.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:quotehub_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
