package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestRepo opens a fresh SQLite repo in a per-test temp dir.
func openTestRepo(t *testing.T) (*SQLiteRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}
