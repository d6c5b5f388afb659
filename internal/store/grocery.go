package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
)

// ErrConflict is returned when a conditional completion update finds the item
// in a different state than the caller expected.
var ErrConflict = errors.New("item completion changed concurrently")

type GroceryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewGroceryStore(db *sql.DB) *GroceryStore {
	return &GroceryStore{db: db, now: time.Now}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var imageURL, completedBy sql.NullString
	var completed int

	err := scanner.Scan(
		&item.ID, &item.House, &item.ItemName, &item.Quantity, &item.Description,
		&item.Price, &imageURL, &item.AddedBy, &item.SlackID, &completed,
		&completedBy, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Completed = completed != 0
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}
	if completedBy.Valid {
		item.CompletedBy = &completedBy.String
	}
	return &item, nil
}

const itemCols = `id, house, item_name, quantity, description, price, image_url, added_by, slack_id, completed, completed_by, created_at`

func (s *GroceryStore) GetItemByID(id int64) (*model.GroceryItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM grocery_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) CreateItem(in model.NewGroceryItem) (*model.GroceryItem, error) {
	var imageURL sql.NullString
	if in.ImageURL != nil {
		imageURL = sql.NullString{String: *in.ImageURL, Valid: true}
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO grocery_items (house, item_name, quantity, description, price, image_url, added_by, slack_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.House, in.ItemName, in.Quantity, in.Description, in.Price, imageURL, in.AddedBy, in.SlackID, s.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItemByID(id)
}

func (s *GroceryStore) ListItemsByHouse(house string) ([]model.GroceryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM grocery_items WHERE house = ? ORDER BY created_at ASC, id ASC`,
		house,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SetCompletion applies a completion change only if the stored completed flag
// still matches upd.ExpectedCompleted. It returns (nil, nil) when the item does
// not exist and ErrConflict when another writer got there first.
func (s *GroceryStore) SetCompletion(id int64, upd model.CompletionUpdate) (*model.GroceryItem, error) {
	var completedBy sql.NullString
	if upd.Completed {
		if upd.CompletedBy == nil || *upd.CompletedBy == "" {
			return nil, fmt.Errorf("set completion: completed_by is required")
		}
		completedBy = sql.NullString{String: *upd.CompletedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`UPDATE grocery_items SET completed = ?, completed_by = ? WHERE id = ? AND completed = ?`,
		boolToInt(upd.Completed), completedBy, id, boolToInt(upd.ExpectedCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("update completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	item, err := s.GetItemByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if n == 0 {
		return item, ErrConflict
	}
	return item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
