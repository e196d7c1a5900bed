// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides the durable key-value store shared by the
// lookup stages. Entries never expire and are never invalidated; once a
// key is written it is treated as authoritative for every later run.
// Staleness is the accepted price of never asking an external registry
// the same question twice.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "lookups.db"

// Store is a named key-value namespace backed by a shared SQLite
// database. Each resolver stage opens its own namespace so that a format
// change in one stage only requires rebuilding that namespace.
//
// Writes are idempotent overwrites (INSERT OR REPLACE), never
// read-modify-write, so concurrent workers racing on the same key are
// harmless: the computed value for a key is deterministic, and
// last-writer-wins converges.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open opens (creating if needed) the namespace in dir/lookups.db.
// WAL mode and a busy timeout make the database safe for concurrent
// readers and writers across worker processes.
func Open(dir, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("cache namespace must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, namespace: namespace}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lookups (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	)`)
	if err != nil {
		return fmt.Errorf("creating cache schema: %w", err)
	}
	return nil
}

// Get returns the cached value for key. The second return reports
// whether the key exists; a stored empty string is a valid hit.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM lookups WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache key %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, overwriting any previous value.
func (s *Store) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO lookups (namespace, key, value) VALUES (?, ?, ?)`,
		s.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing cache key %q: %w", key, err)
	}
	return nil
}

// Len returns the number of entries in the namespace.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT count(*) FROM lookups WHERE namespace = ?`, s.namespace,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
