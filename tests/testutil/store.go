package testutil

import (
	"path/filepath"
	"testing"

	"github.com/tohur/webmail/internal/store"
)

// NewTestStore creates a throwaway SQLiteStore with all migrations
// applied, backed by a file in the test's temp dir so every pooled
// connection sees the same database. It automatically closes the
// store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "webmail.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
