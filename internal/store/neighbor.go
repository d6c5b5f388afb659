package store

import (
	"database/sql"
	"fmt"

	"github.com/xndadelin/Grosharing/internal/model"
)

type NeighborStore struct {
	db *sql.DB
}

func NewNeighborStore(db *sql.DB) *NeighborStore {
	return &NeighborStore{db: db}
}

func scanNeighbor(scanner interface{ Scan(...any) error }) (*model.Neighbor, error) {
	var n model.Neighbor
	var token sql.NullString
	err := scanner.Scan(&n.SlackID, &n.House, &n.FullName, &n.AvatarURL, &token, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		n.PushToken = &token.String
	}
	return &n, nil
}

const neighborCols = `slack_id, house, full_name, avatar_url, push_token, created_at`

// Join adds the user to the house. Joining a house twice keeps the first row.
func (s *NeighborStore) Join(house string, user model.User) (*model.Neighbor, bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO neighbors (slack_id, house, full_name, avatar_url) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slack_id, house) DO NOTHING`,
		user.ID, house, user.FullName, user.AvatarURL,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert neighbor: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	neighbor, err := s.Get(house, user.ID)
	if err != nil {
		return nil, false, err
	}
	return neighbor, n > 0, nil
}

func (s *NeighborStore) Get(house, slackID string) (*model.Neighbor, error) {
	row := s.db.QueryRow(`SELECT `+neighborCols+` FROM neighbors WHERE house = ? AND slack_id = ?`, house, slackID)
	n, err := scanNeighbor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get neighbor: %w", err)
	}
	return n, nil
}

func (s *NeighborStore) ListByHouse(house string) ([]model.Neighbor, error) {
	rows, err := s.db.Query(
		`SELECT `+neighborCols+` FROM neighbors WHERE house = ? ORDER BY created_at ASC, full_name ASC`,
		house,
	)
	if err != nil {
		return nil, fmt.Errorf("list neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []model.Neighbor
	for rows.Next() {
		n, err := scanNeighbor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, *n)
	}
	return neighbors, rows.Err()
}

// ListHousesForUser returns the names of every house the user has joined.
func (s *NeighborStore) ListHousesForUser(slackID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT house FROM neighbors WHERE slack_id = ? ORDER BY house ASC`, slackID)
	if err != nil {
		return nil, fmt.Errorf("list houses for user: %w", err)
	}
	defer rows.Close()

	var houses []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, h)
	}
	return houses, rows.Err()
}

// SetPushToken stores the push token on an existing membership. It returns
// false when the user is not a neighbor of the house.
func (s *NeighborStore) SetPushToken(house, slackID, token string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE neighbors SET push_token = ? WHERE house = ? AND slack_id = ?`,
		token, house, slackID,
	)
	if err != nil {
		return false, fmt.Errorf("update push token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearPushToken removes a token that the push service reported as expired.
func (s *NeighborStore) ClearPushToken(token string) error {
	_, err := s.db.Exec(`UPDATE neighbors SET push_token = NULL WHERE push_token = ?`, token)
	if err != nil {
		return fmt.Errorf("clear push token: %w", err)
	}
	return nil
}
