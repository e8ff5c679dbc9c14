package database

import (
	"context"
	"database/sql"
)

// GetSetting returns the stored value for key and whether it was set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores or replaces the value for key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to store setting")
	}
	return err
}

// DeleteSetting removes the value for key. Deleting an absent key is a
// no-op.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}
