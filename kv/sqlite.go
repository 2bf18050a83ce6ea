package kv

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite is a Store keeping every key in a single table of an SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS kv (
			key BLOB PRIMARY KEY,
			value BLOB NOT NULL
		) WITHOUT ROWID;`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *SQLite) Get(key []byte) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

// Put stores value under key.
func (s *SQLite) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.Exec("INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *SQLite) Delete(key []byte) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Has reports if a value is stored under key.
func (s *SQLite) Has(key []byte) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM kv WHERE key = ?", key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite has: %w", err)
	}
	return n > 0, nil
}

// Iterate calls f for every key starting with prefix in ascending order, until f returns false.
func (s *SQLite) Iterate(prefix []byte, f func(key, value []byte) bool) error {
	if prefix == nil {
		prefix = []byte{}
	}
	rows, err := s.db.Query("SELECT key, value FROM kv WHERE key >= ? ORDER BY key", prefix)
	if err != nil {
		return fmt.Errorf("sqlite iterate: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("sqlite iterate: %w", err)
		}
		if !bytes.HasPrefix(k, prefix) || !f(k, v) {
			break
		}
	}
	return rows.Err()
}

// Close closes the SQLite database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
