// Package sqlstoretest opens throwaway SQLite-backed stores for tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/database"
	"github.com/nikhil/sharenet/internal/store/sqlstore"
)

// New returns a migrated store in the test's temp dir, closed on cleanup.
func New(t testing.TB) *sqlstore.Store {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "sharenet.db"))
	require.NoError(t, err)
	s := sqlstore.New(db)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}
