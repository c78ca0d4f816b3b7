package database

import (
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func tableNames(t *testing.T) []string {
	t.Helper()
	var names []string
	cache := &sync.Map{}
	for _, m := range Models() {
		s, err := schema.Parse(m, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		names = append(names, s.Table)
	}
	return names
}

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	// a second run must be a no-op
	require.NoError(t, AutoMigrate(db))

	for _, table := range tableNames(t) {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestMigrations_CoverEveryModel(t *testing.T) {
	up, err := fs.ReadFile(migrationsFS, "migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	down, err := fs.ReadFile(migrationsFS, "migrations/000001_init_schema.down.sql")
	require.NoError(t, err)

	for _, table := range tableNames(t) {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table+" (", "up migration lacks %s", table)
		assert.Contains(t, string(down), "DROP TABLE IF EXISTS "+table+";", "down migration lacks %s", table)
	}
}

func TestMigrations_DropInReverseOrder(t *testing.T) {
	down, err := fs.ReadFile(migrationsFS, "migrations/000001_init_schema.down.sql")
	require.NoError(t, err)

	tables := tableNames(t)
	last := -1
	for i := len(tables) - 1; i >= 0; i-- {
		pos := strings.Index(string(down), "DROP TABLE IF EXISTS "+tables[i]+";")
		require.GreaterOrEqual(t, pos, 0, tables[i])
		assert.Greater(t, pos, last, "%s dropped out of order", tables[i])
		last = pos
	}
}
