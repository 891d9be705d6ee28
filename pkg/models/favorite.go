package models

import "time"

// Favorite is a clip saved by an authenticated user.
type Favorite struct {
	UserID    string    `json:"user_id"`
	ClipID    int64     `json:"clip_id"`
	CreatedAt time.Time `json:"created_at"`
}
