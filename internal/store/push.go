package store

import (
	"database/sql"
	"fmt"
	"time"
)

// PushStore records which house-wide notifications were already delivered so
// periodic checks do not repeat them.
type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// RecordSent records that a notification was sent (for dedup).
func (s *PushStore) RecordSent(house, notifType, refID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sent_notifications (house, notification_type, reference_id)
		 VALUES (?, ?, ?)`,
		house, notifType, refID,
	)
	if err != nil {
		return fmt.Errorf("record sent notification: %w", err)
	}
	return nil
}

// WasSent checks if a notification was already sent.
func (s *PushStore) WasSent(house, notifType, refID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sent_notifications
		 WHERE house = ? AND notification_type = ? AND reference_id = ?`,
		house, notifType, refID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent notification: %w", err)
	}
	return count > 0, nil
}

// CleanupSent deletes sent_notifications older than the given time.
func (s *PushStore) CleanupSent(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM sent_notifications WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup sent notifications: %w", err)
	}
	return nil
}
