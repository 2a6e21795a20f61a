package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/posesketch/internal/config"
)

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTuning removes the saved tuning of mode. Nothing saved is not an
// error.
func (r *SettingsRepository) DeleteTuning(mode string) error {
	if err := r.Delete(tuningKey(mode)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func tuningKey(mode string) string {
	return "tuning." + mode
}

// LoadTuning returns the tuning saved for mode. When nothing was saved, or
// the saved value no longer validates, fallback is returned unchanged.
func (r *SettingsRepository) LoadTuning(mode string, fallback config.Tuning) (config.Tuning, error) {
	raw, err := r.Get(tuningKey(mode))
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	t := fallback
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return fallback, fmt.Errorf("decode tuning for %s: %w", mode, err)
	}
	if err := config.ValidateTuning(&t); err != nil {
		return fallback, fmt.Errorf("saved tuning for %s: %w", mode, err)
	}
	return t, nil
}

// SaveTuning validates t and stores it for mode.
func (r *SettingsRepository) SaveTuning(mode string, t config.Tuning) error {
	if err := config.ValidateTuning(&t); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.Set(tuningKey(mode), string(raw))
}
