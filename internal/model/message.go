package model

import "time"

type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	HouseID   int64     `json:"house_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
