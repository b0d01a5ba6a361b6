package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sketchpad/internal/domain"
)

// SettingsStore is a string key-value store over the settings table.
type SettingsStore struct {
	db *DB
}

var _ domain.KVStore = (*SettingsStore)(nil)

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key. ok is false when the key is absent.
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.Conn().QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or overwrites key.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
