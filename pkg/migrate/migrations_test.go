package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/homestead-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "migration %s", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestCatalogMigrationUniqueness(t *testing.T) {
	content := readMigration(t, "create_catalog_tables")
	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_stores_household_code",
		"ON stores (household_id, lower(store_code)) WHERE store_code IS NOT NULL",
		"ON stores (household_id, lower(name)) WHERE store_code IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_household_name ON brands (household_id, lower(name))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_units_household_name ON units (household_id, lower(name))",
		"DROP TABLE IF EXISTS stores",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestPurchaseMigrationLinksBudgetEntry(t *testing.T) {
	content := readMigration(t, "create_purchases")
	for _, sub := range []string{
		"budget_entry_id uuid NOT NULL",
		"FOREIGN KEY (budget_entry_id) REFERENCES budget_entries(id) ON DELETE CASCADE",
		"CHECK (NOT (count IS NOT NULL AND units IS NOT NULL))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_purchases_budget_entry",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestFormatCorrectionMigrationUniqueness(t *testing.T) {
	content := readMigration(t, "create_format_corrections")
	assert.Contains(t, content, "ON format_corrections (household_id, normalized_text)")
}

func TestEmbeddedMatchesDisk(t *testing.T) {
	embedded, err := fs.Glob(migrate.Embedded(), "migrations/*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	assert.Len(t, embedded, len(onDisk))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Store Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_store_notes.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, migrate.ValidateFS(migrate.Embedded(), "migrations"))
}

func TestValidateDirRejectsUnbalancedStatement(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nCREATE TABLE x (id int);\n\n-- +goose Down\nDROP TABLE x;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_unbalanced.sql"), []byte(body), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n\n-- +goose Down\nSELECT 1;\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_b.sql"), body, 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}
