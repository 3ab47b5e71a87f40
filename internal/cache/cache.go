package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a per-source TTL cache. One row per source; a successful fetch
// replaces the whole row, so readers never observe a torn entry.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			source     TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			fetched_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Get returns the cached entry for a source, or nil on a miss. Unreadable
// rows are reported as a miss: a corrupt cache must never be fatal.
func (c *Cache) Get(source string) (*Entry, error) {
	var e Entry
	err := c.readDB.QueryRow(
		"SELECT source, payload, fetched_at FROM entries WHERE source = ?", source,
	).Scan(&e.Source, &e.Payload, &e.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, nil
	}
	if len(e.Payload) == 0 {
		return nil, nil
	}
	return &e, nil
}

// Put records a successful fetch, stamping FetchedAt with the current
// time and replacing any prior entry for the source in one statement.
func (c *Cache) Put(source string, payload []byte) (Entry, error) {
	e := Entry{Source: source, Payload: payload, FetchedAt: time.Now()}
	_, err := c.writeDB.Exec(`
		INSERT INTO entries (source, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, e.Source, e.Payload, e.FetchedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("caching %s: %w", source, err)
	}
	return e, nil
}

// IsFresh reports whether the source has an entry younger than ttl.
func (c *Cache) IsFresh(source string, ttl time.Duration) bool {
	e, err := c.Get(source)
	if err != nil || e == nil {
		return false
	}
	return time.Since(e.FetchedAt) < ttl
}

// Invalidate drops a source's entry so the next tick schedules a fetch.
func (c *Cache) Invalidate(source string) error {
	_, err := c.writeDB.Exec("DELETE FROM entries WHERE source = ?", source)
	return err
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	_, err := c.writeDB.Exec("DELETE FROM entries")
	return err
}

// Stats returns the entry count and on-disk size for the cache subcommand.
func (c *Cache) Stats(dbPath string) (count int, size int64, err error) {
	if err = c.readDB.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, 0, err
	}
	fi, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, fi.Size(), nil
}

// Entries lists all cached entries, newest first.
func (c *Cache) Entries() ([]Entry, error) {
	rows, err := c.readDB.Query("SELECT source, payload, fetched_at FROM entries ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Source, &e.Payload, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
