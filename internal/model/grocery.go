package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GroceryItem struct {
	ID          int64               `json:"id"`
	House       string              `json:"house"`
	ItemName    string              `json:"item_name"`
	Quantity    int                 `json:"quantity"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	ImageURL    *string             `json:"image_url"`
	AddedBy     string              `json:"added_by"`
	SlackID     string              `json:"slack_id"`
	Completed   bool                `json:"completed"`
	CompletedBy *string             `json:"completed_by"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Cost returns the item's price, treating a missing price as zero.
func (i GroceryItem) Cost() decimal.Decimal {
	if !i.Price.Valid {
		return decimal.Zero
	}
	return i.Price.Decimal
}

// NewGroceryItem is the insert payload for a grocery item. Server-assigned
// fields (id, created_at, completion) are absent.
type NewGroceryItem struct {
	House       string              `json:"house"`
	ItemName    string              `json:"item_name"`
	Quantity    int                 `json:"quantity"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	ImageURL    *string             `json:"image_url"`
	AddedBy     string              `json:"added_by"`
	SlackID     string              `json:"slack_id"`
}

// CompletionUpdate is a conditional completion change: it only applies when
// the stored completed flag still equals ExpectedCompleted.
type CompletionUpdate struct {
	Completed         bool    `json:"completed"`
	CompletedBy       *string `json:"completed_by"`
	ExpectedCompleted bool    `json:"expected_completed"`
}

// SpendingAggregate is a derived per-user spend total. It is never persisted.
type SpendingAggregate struct {
	UserName   string          `json:"user_name"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}
