package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/pypeep/internal/listing"
)

// createTestStore creates a new file-backed SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// records builds a listing from name, version pairs.
func records(pairs ...string) []listing.Record {
	var out []listing.Record
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, listing.Record{Seq: len(out) + 1, Name: pairs[i], Version: pairs[i+1]})
	}
	return out
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
