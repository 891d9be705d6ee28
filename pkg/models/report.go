package models

import "time"

// Report statuses.
const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

// Report is a viewer complaint about a clip, reviewed by moderators.
type Report struct {
	ID         int64     `json:"id"`
	ClipID     int64     `json:"clip_id"`
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}
