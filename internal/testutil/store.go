package testutil

import (
	"testing"

	"gvault/internal/gv"
	"gvault/internal/store"
)

// NewTestStore creates an in-memory SQLite store with the schema applied and
// the reserved metadata keys seeded. The store is automatically closed when
// the test completes.
func NewTestStore(t *testing.T, clock gv.Clock, idgen gv.IDGenerator) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", clock, idgen)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}
