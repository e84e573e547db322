package store

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStorage is a LocalStorage kept in a SQLite database, the way browsers
// persist local storage on disk
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage database")
	}

	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			key    TEXT PRIMARY KEY,
			value  TEXT NOT NULL
		);`,
	); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init storage schema")
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// GetItem returns the value stored under key
func (s *SQLiteStorage) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to read storage item")
	}
	return value, true, nil
}

// SetItem stores value under key
func (s *SQLiteStorage) SetItem(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO local_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return errors.Wrap(err, "failed to write storage item")
	}
	return nil
}

// RemoveItem deletes key
func (s *SQLiteStorage) RemoveItem(key string) error {
	if _, err := s.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "failed to remove storage item")
	}
	return nil
}
