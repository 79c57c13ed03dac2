// Package metadatatest opens an in-memory sqlite store holding the metadata
// tables and a few target tables for tests.
package metadatatest

import (
	"context"
	"testing"

	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/databases"
	"github.com/melkeydev/formengine/metadata"
)

const schema = `
CREATE TABLE NW_forms (
	form_id INTEGER PRIMARY KEY AUTOINCREMENT,
	form_code TEXT,
	form_name TEXT,
	form_type TEXT,
	table_name TEXT NOT NULL,
	primary_key_column TEXT NOT NULL,
	display_column TEXT,
	is_active BOOLEAN DEFAULT 1
);

CREATE TABLE NW_form_components (
	component_id INTEGER PRIMARY KEY AUTOINCREMENT,
	form_id INTEGER NOT NULL,
	component_name TEXT,
	component_order INTEGER DEFAULT 0,
	layout_type TEXT
);

CREATE TABLE NW_form_fields (
	field_id INTEGER PRIMARY KEY AUTOINCREMENT,
	component_id INTEGER NOT NULL,
	field_name TEXT NOT NULL,
	field_label TEXT,
	field_type TEXT NOT NULL CHECK (field_type IN ('text', 'number', 'date', 'checkbox', 'dropdown')),
	placeholder TEXT,
	default_value TEXT,
	col_span INTEGER,
	field_order INTEGER,
	is_required BOOLEAN DEFAULT 0,
	is_unique BOOLEAN DEFAULT 0,
	is_readonly BOOLEAN DEFAULT 0,
	is_auto BOOLEAN DEFAULT 0,
	is_template BOOLEAN DEFAULT 0,
	is_active BOOLEAN DEFAULT 1,
	dropdown_form_id INTEGER
);

CREATE TABLE customers (
	customer_id INTEGER PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT,
	credit_amt DECIMAL(10,2),
	is_vip BIT,
	joined_on DATE,
	created_at DATETIME
);

CREATE TABLE orders (
	order_no INTEGER NOT NULL,
	customer_id INTEGER,
	qty INTEGER,
	note VARCHAR(200)
);
`

// Open returns a pool over a fresh database and a store over its metadata tables.
func Open(t testing.TB) (*databases.Pool, *metadata.Store) {
	t.Helper()

	pool := databases.NewPool(func(ctx context.Context) (databases.Database, error) {
		return databases.NewConnector("sqlite", ":memory:")
	})
	t.Cleanup(func() { pool.Close() })

	db, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.DB().Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return pool, metadata.NewStore(pool, config.Default().Metadata)
}

// Exec runs statements against the pool's database, failing the test on error.
func Exec(t testing.TB, pool *databases.Pool, query string, args ...any) {
	t.Helper()

	db, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("get db: %v", err)
	}
	if _, err := db.DB().Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
