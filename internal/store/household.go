package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/xndadelin/Grosharing/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	if err := scanner.Scan(&h.ID, &h.Name, &h.Location, &h.CreatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

const houseCols = `id, name, location, created_at`

func (s *HouseStore) Create(name, location string) (*model.House, error) {
	result, err := s.db.Exec(`INSERT INTO houses (name, location) VALUES (?, ?)`, name, location)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) GetByID(id int64) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

func (s *HouseStore) GetByName(name string) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE name = ?`, name)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house by name: %w", err)
	}
	return h, nil
}

func (s *HouseStore) List() ([]model.House, error) {
	rows, err := s.db.Query(`SELECT ` + houseCols + ` FROM houses ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}

// SetPassword stores a bcrypt hash of the house join password.
func (s *HouseStore) SetPassword(house, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO password_houses (house, password_hash) VALUES (?, ?)
		 ON CONFLICT(house) DO UPDATE SET password_hash = excluded.password_hash`,
		house, string(hash),
	)
	if err != nil {
		return fmt.Errorf("set house password: %w", err)
	}
	return nil
}

// CheckPassword reports whether password opens the house. A house without a
// password row cannot be joined.
func (s *HouseStore) CheckPassword(house, password string) (bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM password_houses WHERE house = ?`, house).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get house password: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}
