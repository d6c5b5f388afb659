package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

type BudgetStore struct {
	db *sql.DB
}

func NewBudgetStore(db *sql.DB) *BudgetStore {
	return &BudgetStore{db: db}
}

func (s *BudgetStore) Get(house string) (*model.HouseBudget, error) {
	var b model.HouseBudget
	err := s.db.QueryRow(
		`SELECT house_name, budget, updated_at FROM house_budgets WHERE house_name = ?`, house,
	).Scan(&b.HouseName, &b.Budget, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

// Upsert creates the house budget on first set and overwrites it afterwards.
func (s *BudgetStore) Upsert(house string, amount decimal.Decimal) (*model.HouseBudget, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("upsert budget: negative amount %s", amount)
	}
	_, err := s.db.Exec(
		`INSERT INTO house_budgets (house_name, budget, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(house_name) DO UPDATE SET budget = excluded.budget, updated_at = excluded.updated_at`,
		house, amount.String(), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return s.Get(house)
}

// List returns every house budget ordered by house name.
func (s *BudgetStore) List() ([]model.HouseBudget, error) {
	rows, err := s.db.Query(`SELECT house_name, budget, updated_at FROM house_budgets ORDER BY house_name`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.HouseBudget
	for rows.Next() {
		var b model.HouseBudget
		if err := rows.Scan(&b.HouseName, &b.Budget, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
