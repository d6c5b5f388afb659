package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
)

type MessageStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db, now: time.Now}
}

func scanMessage(scanner interface{ Scan(...any) error }) (*model.ChatMessage, error) {
	var m model.ChatMessage
	if err := scanner.Scan(&m.ID, &m.UserID, &m.HouseID, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

const messageCols = `id, user_id, house_id, content, created_at`

func (s *MessageStore) Create(houseID int64, userID, content string) (*model.ChatMessage, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (user_id, house_id, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, houseID, content, s.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListByHouse returns the house's chat history oldest first.
func (s *MessageStore) ListByHouse(houseID int64) ([]model.ChatMessage, error) {
	rows, err := s.db.Query(
		`SELECT `+messageCols+` FROM messages WHERE house_id = ? ORDER BY created_at ASC, id ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}
