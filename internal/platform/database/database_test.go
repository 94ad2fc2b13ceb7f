package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/config"
)

func TestNew_MemoryCreatesUsersTable(t *testing.T) {
	db, err := New(context.Background(), config.StorageConfig{
		Driver:   config.DriverSQLite,
		Location: config.MemoryLocation,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.True(t, db.Migrator().HasTable("users"))
	for _, col := range []string{"id", "uid", "salt", "pass", "created", "edited"} {
		assert.True(t, db.Migrator().HasColumn("users", col), "missing column %s", col)
	}
}

func TestNew_FileIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")
	cfg := config.StorageConfig{Driver: config.DriverSQLite, Location: path}

	db, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, db.Exec("INSERT INTO users (uid, salt, pass) VALUES (?, ?, ?)", "connor", "s", "p").Error)
	require.NoError(t, Close(db))

	// migrations are idempotent and data survives a restart
	db, err = New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var count int64
	require.NoError(t, db.Table("users").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "oracle", Location: "x"})
	assert.Error(t, err)
}
