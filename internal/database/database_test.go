package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
)

func TestMigrateCreatesLedgerTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, Migrate(conn))
	for _, model := range models.All() {
		require.True(t, conn.Migrator().HasTable(model))
	}
	require.NoError(t, Migrate(conn), "migrations are repeatable")
}

func TestEnsureDatabaseIgnoresNonPostgresDSN(t *testing.T) {
	require.NoError(t, ensureDatabase("file::memory:"))
	require.NoError(t, ensureDatabase("host=localhost user=postgres dbname=referdby"))
}
