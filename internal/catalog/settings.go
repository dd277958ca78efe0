package catalog

import "fmt"

// GetSetting reads a single key from the settings table.
// Returns ErrNotFound if the key has never been set.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, mapSQLiteError(err))
	}
	return value, nil
}

// SetSetting upserts a key/value pair into the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, mapSQLiteError(err))
	}
	return nil
}
