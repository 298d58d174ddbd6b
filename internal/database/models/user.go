package models

import "time"

// User is the tracked wallet record of one Telegram chat
type User struct {
	ChatID    int64     `json:"chat_id"`
	Name      string    `json:"name"`
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
