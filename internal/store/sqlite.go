package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	properties  TEXT NOT NULL DEFAULT '{}',
	markup      TEXT NOT NULL DEFAULT '',
	plain       TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	outline     TEXT NOT NULL DEFAULT '[]',
	assets      TEXT NOT NULL DEFAULT '[]',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with entry-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Keys returns document id → stored fingerprint for every entry.
func (db *DB) Keys() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, fingerprint FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("store: keys: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, fp string
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, err
		}
		out[id] = fp
	}
	return out, rows.Err()
}

// Set inserts or replaces an entry and its FTS row within a transaction.
// The property data must serialize cleanly; a non-serializable shape is
// rejected before anything is written.
func (db *DB) Set(e *models.Entry) error {
	if e == nil || e.ID == "" {
		return fmt.Errorf("store: set: entry id is required")
	}
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("store: set %s: encode properties: %w", e.ID, err)
	}
	outline, _ := json.Marshal(e.Outline)
	assetList, _ := json.Marshal(e.Assets)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (id, fingerprint, title, properties, markup, plain, checksum, outline, assets, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			title       = excluded.title,
			properties  = excluded.properties,
			markup      = excluded.markup,
			plain       = excluded.plain,
			checksum    = excluded.checksum,
			outline     = excluded.outline,
			assets      = excluded.assets,
			updated_at  = excluded.updated_at
	`, e.ID, e.Fingerprint, e.Title, string(props), e.Markup, e.Plain, e.Checksum, string(outline), string(assetList), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert %s: %w", e.ID, err)
	}

	if err := ftsUpsert(tx, e.ID, e.Title, e.Plain); err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns the entry for id, or apperr.ErrNotFound.
func (db *DB) Get(id string) (*models.Entry, error) {
	var e models.Entry
	var props, outline, assetList string
	err := db.conn.QueryRow(`
		SELECT id, fingerprint, title, properties, markup, plain, checksum, outline, assets, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&e.ID, &e.Fingerprint, &e.Title, &props, &e.Markup, &e.Plain, &e.Checksum, &outline, &assetList, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	_ = json.Unmarshal([]byte(props), &e.Properties)
	_ = json.Unmarshal([]byte(outline), &e.Outline)
	_ = json.Unmarshal([]byte(assetList), &e.Assets)
	return &e, nil
}

// Delete removes an entry and its FTS row.
func (db *DB) Delete(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM documents WHERE id = ?`, id)

	return tx.Commit()
}

// List returns lightweight summaries ordered by title.
func (db *DB) List() ([]Summary, error) {
	rows, err := db.conn.Query(`SELECT id, title, fingerprint, updated_at FROM documents ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.Fingerprint, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
