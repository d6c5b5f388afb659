package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionStore tracks session tokens that were signed out before they
// expired. Session tokens are otherwise stateless.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Revoke marks a token id as signed out until its expiry.
func (s *SessionStore) Revoke(tokenID, userID string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO revoked_sessions (token_id, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenID, userID, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id was signed out.
func (s *SessionStore) IsRevoked(tokenID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM revoked_sessions WHERE token_id = ?`, tokenID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return count > 0, nil
}

// DeleteExpired drops revocations whose tokens have expired anyway.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM revoked_sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
