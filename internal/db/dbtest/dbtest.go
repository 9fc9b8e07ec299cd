// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/db"
)

// New returns an in-memory SQLite database with all migrations applied.
// It is closed when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.Init("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}
