// Package testutil provides shared test helpers for setting up stores and cache dirs.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCacheDir creates a temporary asset cache directory.
func TestCacheDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
