// Package store persists rendered document entries in SQLite, with optional
// FTS5 full-text search behind the sqlite_fts5 build tag.
package store

import (
	"time"

	"github.com/starford/ansuz/internal/models"
)

// Summary is a lightweight row returned by list operations.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchResult is one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Store is the keyed map the sync controller writes into. Consumers depend
// on this interface rather than the concrete *DB to allow test fakes.
type Store interface {
	// Keys returns document id → stored fingerprint for every entry.
	Keys() (map[string]string, error)
	// Get returns the entry for id, or apperr.ErrNotFound.
	Get(id string) (*models.Entry, error)
	// Set inserts or replaces the entry keyed by its document id.
	Set(e *models.Entry) error
	// Delete removes the entry for id; deleting a missing id is not an error.
	Delete(id string) error
	// List returns summaries ordered by title.
	List() ([]Summary, error)
	// Search matches title and plain text.
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
