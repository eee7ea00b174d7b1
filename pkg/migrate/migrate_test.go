package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateFS(Embedded(), embeddedDir))
	require.NoError(t, ValidateDir("migrations"))

	entries, err := fs.ReadDir(Embedded(), embeddedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestPartsMigrationGuardsLedger(t *testing.T) {
	content := readMigration(t, "*_create_parts.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS parts",
		"CONSTRAINT chk_parts_current_stock CHECK (current_stock >= 0)",
		"CONSTRAINT chk_parts_reserved CHECK (reserved >= 0)",
		"CONSTRAINT chk_parts_reserved_within_stock CHECK (reserved <= current_stock)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_parts_code ON parts (code)",
		"DROP TABLE IF EXISTS parts",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestUsagesMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_repair_part_usages.sql")
	for _, sub := range []string{
		"REFERENCES repairs(id) ON DELETE CASCADE",
		"REFERENCES parts(id) ON DELETE RESTRICT",
		"CHECK (quantity >= 1)",
		"idx_usages_repair_part ON repair_part_usages (repair_id, part_id)",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestSeedMigrationListsDefaultDevices(t *testing.T) {
	content := readMigration(t, "*_seed_default_devices.sql")
	for _, name := range models.DefaultDeviceNames {
		assert.Contains(t, content, "'"+name+"'")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "invalid migration filename")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_only_up.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "-- +goose Down")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	path, err := createSQLMigration(dir, " Add Part Barcode! ", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260203040506_add_part_barcode.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = createSQLMigration(dir, "add part barcode", now)
	assert.ErrorContains(t, err, "already exists")

	_, err = createSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestAutoMigrateModelsSeedsDevicesOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, AutoMigrateModels(ctx, conn))
	require.NoError(t, AutoMigrateModels(ctx, conn))

	var names []string
	require.NoError(t, conn.Model(&models.Device{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, models.DefaultDeviceNames, names)
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matches %s", pattern)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}
