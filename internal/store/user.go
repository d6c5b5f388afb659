package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.FullName, &u.AvatarURL)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, full_name, avatar_url`

// Upsert records the identity-provider profile for a user, refreshing name
// and avatar on every sign-in.
func (s *UserStore) Upsert(u model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO users (id, full_name, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET full_name = excluded.full_name, avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`,
		u.ID, u.FullName, u.AvatarURL, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetByID(u.ID)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
