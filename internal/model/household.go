package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type House struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Neighbor is a user's membership in one house.
type Neighbor struct {
	SlackID   string    `json:"slack_id"`
	House     string    `json:"house"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	PushToken *string   `json:"push_token"`
	CreatedAt time.Time `json:"created_at"`
}

type HouseBudget struct {
	HouseName string          `json:"house_name"`
	Budget    decimal.Decimal `json:"budget"`
	UpdatedAt time.Time       `json:"updated_at"`
}
