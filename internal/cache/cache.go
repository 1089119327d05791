// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache tracks content hashes of synced files so unchanged
// files are skipped on later runs. One SQLite database per target
// folder.
package cache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Skip/sync reasons reported by ShouldSync.
const (
	ReasonNew      = "new file"
	ReasonModified = "file modified"
	ReasonSynced   = "already synced"
)

// Cache is the change-detection store for one target folder.
type Cache struct {
	db   *sql.DB
	path string
}

// dbName derives a per-folder database file name from the folder ID.
// The first 12 characters keep the name readable.
func dbName(folderID string) string {
	if folderID == "" {
		return "sync.db"
	}
	if len(folderID) > 12 {
		folderID = folderID[:12]
	}
	return "sync-" + folderID + ".db"
}

// Open opens or creates the cache database for folderID under cacheDir.
func Open(cacheDir, folderID string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, dbName(folderID))
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &Cache{db: db, path: dbPath}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) createSchema() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		remote_id TEXT NOT NULL,
		last_sync TEXT NOT NULL,
		run_id TEXT NOT NULL
	)`)
	return err
}

// FileHash streams the file through md5 and returns the hex digest.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ShouldSync reports whether the file needs syncing and why. Files that
// cannot be hashed sync unconditionally.
func (c *Cache) ShouldSync(path string) (bool, string) {
	hash, err := FileHash(path)
	if err != nil {
		return true, "error reading file"
	}

	var cached string
	err = c.db.QueryRow(`SELECT content_hash FROM files WHERE path = ?`, path).Scan(&cached)
	if errors.Is(err, sql.ErrNoRows) {
		return true, ReasonNew
	}
	if err != nil {
		return true, "cache read error"
	}
	if cached != hash {
		return true, ReasonModified
	}
	return false, ReasonSynced
}

// Update records a successful sync of path to remoteID under the given
// run.
func (c *Cache) Update(path, remoteID, runID string) error {
	hash, err := FileHash(path)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`INSERT INTO files (path, content_hash, remote_id, last_sync, run_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			remote_id = excluded.remote_id,
			last_sync = excluded.last_sync,
			run_id = excluded.run_id`,
		path, hash, remoteID, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("updating cache entry for %s: %w", path, err)
	}
	return nil
}

// RemoteID returns the stored remote document ID for path, or "" when
// the file has never synced.
func (c *Cache) RemoteID(path string) (string, error) {
	var id string
	err := c.db.QueryRow(`SELECT remote_id FROM files WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading cache entry for %s: %w", path, err)
	}
	return id, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int
	LastRun string
}

// Stats returns entry count and the most recent run ID.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&s.Entries); err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}

	err := c.db.QueryRow(`SELECT run_id FROM files ORDER BY last_sync DESC LIMIT 1`).Scan(&s.LastRun)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("reading last run: %w", err)
	}
	return s, nil
}

// Clear removes every entry, forcing a full re-sync.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
