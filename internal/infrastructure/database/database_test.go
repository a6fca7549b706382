package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-netfsm/internal/infrastructure/config"
)

// openTestDB opens an in-memory database for the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{Path: MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}

func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(context.Background(), config.DatabaseConfig{
			Path:        dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck // Test cleanup

		assert.FileExists(t, dbPath)
		assert.Equal(t, dbPath, db.Path())
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(context.Background(), config.DatabaseConfig{Path: dbPath, BusyTimeout: 5})
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck // Test cleanup

		assert.DirExists(t, filepath.Dir(dbPath))
	})

	t.Run("enables WAL mode", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "wal.db")

		db, err := Open(context.Background(), config.DatabaseConfig{Path: dbPath, WALMode: true, BusyTimeout: 5})
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck // Test cleanup

		var mode string
		require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", strings.ToLower(mode))
	})

	t.Run("in memory", func(t *testing.T) {
		db := openTestDB(t)
		assert.Equal(t, MemoryPath, db.Path())
	})
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.DatabaseConfig
		memory bool
		want   string
	}{
		{
			name: "file with WAL",
			cfg:  config.DatabaseConfig{Path: "/var/lib/netfsm/history.db", WALMode: true, BusyTimeout: 5},
			want: "file:/var/lib/netfsm/history.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		},
		{
			name: "file without WAL",
			cfg:  config.DatabaseConfig{Path: "h.db", BusyTimeout: 2},
			want: "file:h.db?_busy_timeout=2000&_foreign_keys=on",
		},
		{
			name:   "memory",
			cfg:    config.DatabaseConfig{Path: MemoryPath},
			memory: true,
			want:   "file::memory:?_foreign_keys=on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dsn(tt.cfg, tt.memory))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, db.HealthCheck(ctx))
}

func TestClose(t *testing.T) {
	db, err := Open(context.Background(), config.DatabaseConfig{Path: MemoryPath})
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.Error(t, db.HealthCheck(context.Background()), "health check after Close")

	var nilDB *DB
	assert.NoError(t, nilDB.Close())
}

func TestBeginTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&n))
	assert.Zero(t, n, "rows after rollback")
}
