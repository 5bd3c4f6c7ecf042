// Package syncer implements the consuming side of the sync protocol: change
// detection against a recorded snapshot, full bootstrap import, incremental
// pull, and the force re-sync recovery path.
package syncer

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/quillbox/quillbox/internal/db"
	"github.com/quillbox/quillbox/internal/syncstore"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS remote_snapshot (
    path TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_snapshot_hash ON remote_snapshot(hash);

CREATE TABLE IF NOT EXISTS sync_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Meta keys recorded alongside the snapshot.
const (
	MetaContentVersion = "content_version"
	MetaLastSynced     = "last_synced"
	MetaRemoteURL      = "remote_url"
)

type snapshotRow struct {
	Path string `db:"path"`
	Hash string `db:"hash"`
	Size int64  `db:"size"`
}

// Journal persists the last known remote state of one blog: the full
// path->hash table of the manifest applied by the most recent successful
// bootstrap or pull. Each blog has its own journal database.
type Journal struct {
	db     *sqlx.DB
	dbPath string
}

// NewJournal creates a Journal backed by an SQLite database at dbPath.
func NewJournal(dbPath string) *Journal {
	return &Journal{dbPath: dbPath}
}

// Open the journal and the underlying database.
func (j *Journal) Open() error {
	if j.db != nil {
		return fmt.Errorf("journal already open")
	}
	conn, err := db.NewSqliteDb(db.WithPath(j.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return fmt.Errorf("init journal schema: %w", err)
	}
	j.db = conn
	return nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return fmt.Errorf("journal not open")
	}
	if err := j.db.Close(); err != nil {
		slog.Error("failed to close journal database", "error", err)
		return err
	}
	j.db = nil
	return nil
}

// State returns the recorded path->hash table.
func (j *Journal) State() (map[string]string, error) {
	var rows []snapshotRow
	if err := j.db.Select(&rows, "SELECT path, hash, size FROM remote_snapshot"); err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	state := make(map[string]string, len(rows))
	for _, r := range rows {
		state[r.Path] = r.Hash
	}
	return state, nil
}

// Replace swaps the whole snapshot for the given manifest file table in one
// transaction. The snapshot is never merged: after a successful pull the next
// diff must run against the true latest remote state.
func (j *Journal) Replace(files map[string]syncstore.FileEntry) error {
	tx, err := j.db.Beginx()
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM remote_snapshot"); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	for path, entry := range files {
		if _, err := tx.Exec("INSERT INTO remote_snapshot (path, hash, size) VALUES (?, ?, ?)",
			path, entry.Hash, entry.Size); err != nil {
			return fmt.Errorf("replace snapshot: insert %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	slog.Debug("journal snapshot replaced", "files", len(files))
	return nil
}

// Clear drops the snapshot and all metadata.
func (j *Journal) Clear() error {
	if _, err := j.db.Exec("DELETE FROM remote_snapshot"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if _, err := j.db.Exec("DELETE FROM sync_meta"); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	return nil
}

// Count returns the number of paths in the snapshot.
func (j *Journal) Count() (int, error) {
	var count int
	if err := j.db.Get(&count, "SELECT COUNT(*) FROM remote_snapshot"); err != nil {
		return 0, fmt.Errorf("count snapshot: %w", err)
	}
	return count, nil
}

// Meta returns a metadata value, or "" when unset.
func (j *Journal) Meta(key string) (string, error) {
	var value string
	err := j.db.Get(&value, "SELECT value FROM sync_meta WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta inserts or updates a metadata value.
func (j *Journal) SetMeta(key, value string) error {
	if _, err := j.db.Exec("INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
