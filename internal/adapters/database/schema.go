package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// Dialects understood by the adapters
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const (
	screensTable        = "screens"
	widgetsTable        = "widgets"
	widgetSettingsTable = "widget_type_settings"
)

// grid_order is deliberately not unique: the layout engine owns slot
// uniqueness and swaps pass through transient duplicates inside a transaction.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS screens (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	refresh_interval   INTEGER NOT NULL,
	layout             TEXT NOT NULL,
	view_mode          TEXT NOT NULL,
	featured_widget_id TEXT NULL,
	created_at         %[1]s NOT NULL,
	updated_at         %[1]s NOT NULL
);

CREATE TABLE IF NOT EXISTS widgets (
	id            TEXT PRIMARY KEY,
	screen_id     TEXT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
	widget_type   TEXT NOT NULL,
	config        TEXT NOT NULL DEFAULT '{}',
	grid_col_span INTEGER NOT NULL,
	grid_row_span INTEGER NOT NULL,
	grid_order    INTEGER NOT NULL,
	created_at    %[1]s NOT NULL,
	updated_at    %[1]s NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_widgets_screen_order ON widgets (screen_id, grid_order);

CREATE TABLE IF NOT EXISTS widget_type_settings (
	widget_type TEXT PRIMARY KEY,
	config      TEXT NOT NULL,
	updated_at  %[1]s NOT NULL
);
`

// Schema returns the DDL for dialect
func Schema(dialect string) string {
	timestamp := "TIMESTAMPTZ"
	if dialect == DialectSQLite {
		timestamp = "TIMESTAMP"
	}
	return fmt.Sprintf(schemaTemplate, timestamp)
}

// EnsureSchema creates the tables when they do not exist yet
func EnsureSchema(ctx context.Context, db *sql.DB, dialect string) error {
	if _, err := db.ExecContext(ctx, Schema(dialect)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// builder returns a query builder for dialect, defaulting to postgres
func builder(dialect string) goqu.DialectWrapper {
	if dialect != DialectSQLite {
		dialect = DialectPostgres
	}
	return goqu.Dialect(dialect)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
