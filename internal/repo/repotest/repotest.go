// Package repotest opens throwaway SQLite databases carrying the household
// schema for repository and service tests.
package repotest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Schema mirrors the goose migrations with SQLite types: uuids, arrays and
// decimals are TEXT, timestamps are DATETIME.
const Schema = `
CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  name TEXT NOT NULL,
  address TEXT,
  city TEXT,
  state TEXT,
  postal_code TEXT,
  phone TEXT,
  store_code TEXT,
  tax_rate TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stores_household_code ON stores (household_id, lower(store_code)) WHERE store_code IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_stores_household_name ON stores (household_id, lower(name)) WHERE store_code IS NULL;

CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  name TEXT NOT NULL,
  default_item_name TEXT,
  default_unit TEXT,
  default_tag_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_household_name ON brands (household_id, lower(name));

CREATE TABLE IF NOT EXISTS units (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_units_household_name ON units (household_id, lower(name));

CREATE TABLE IF NOT EXISTS tags (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  name TEXT NOT NULL,
  color TEXT,
  created_at DATETIME
);

CREATE TABLE IF NOT EXISTS budget_sources (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  amount TEXT,
  frequency TEXT NOT NULL DEFAULT 'variable',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_budget_sources_household_name_type ON budget_sources (household_id, lower(name), type);

CREATE TABLE IF NOT EXISTS budget_entries (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  user_id TEXT,
  date DATETIME NOT NULL,
  amount TEXT NOT NULL,
  type TEXT NOT NULL,
  notes TEXT,
  source_id TEXT,
  tag_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS trips (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  driver TEXT,
  start_time DATETIME NOT NULL,
  end_time DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS stops (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
  store_id TEXT,
  store_name TEXT NOT NULL,
  store_address TEXT,
  arrival_time DATETIME,
  departure_time DATETIME,
  position INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  budget_entry_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS calendar_tasks (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  title TEXT NOT NULL,
  trip_id TEXT,
  due_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  stop_id TEXT REFERENCES stops(id) ON DELETE CASCADE,
  budget_entry_id TEXT NOT NULL REFERENCES budget_entries(id) ON DELETE CASCADE,
  brand_name TEXT NOT NULL,
  item_name TEXT NOT NULL,
  unit TEXT,
  count TEXT,
  price_per_count TEXT,
  units TEXT,
  price_per_unit TEXT,
  taxable INTEGER NOT NULL DEFAULT 0,
  tax_rate TEXT,
  total_price TEXT NOT NULL,
  receipt_store_code TEXT,
  raw_text TEXT,
  tag_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS format_corrections (
  id TEXT PRIMARY KEY,
  household_id TEXT NOT NULL,
  raw_text TEXT NOT NULL,
  normalized_text TEXT NOT NULL,
  corrected_brand TEXT,
  corrected_item TEXT,
  corrected_unit TEXT,
  corrected_quantity TEXT,
  corrected_unit_quantity TEXT,
  match_type TEXT NOT NULL DEFAULT 'exact',
  times_applied INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_format_corrections_household_text ON format_corrections (household_id, normalized_text);
`

// Open returns a private in-memory database with Schema applied. A single
// connection serialises goroutines so concurrent callers see one database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:household_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec(Schema).Error)
	return db
}
