package models

import "time"

// Clip is the canonical, deduplicated form of a clip in the catalog.
//
// Rows are owned by the catalog store: the ingestion pipeline mutates them
// only through resolver decisions (insert / replace), moderation actions
// mutate the safety flags directly. (platform, external_id) is unique.
type Clip struct {
	ID           int64             `json:"id"`
	ExternalID   string            `json:"external_id"`
	Platform     string            `json:"platform"`
	Source       string            `json:"source"`
	Title        string            `json:"title"`
	Author       string            `json:"author,omitempty"`
	MediaURL     string            `json:"media_url"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	DurationSec  float64           `json:"duration_sec,omitempty"`
	Tags         []string          `json:"tags"`
	Views        int               `json:"views"`
	Likes        int               `json:"likes"`
	NSFW         bool              `json:"nsfw"`
	Blacklisted  bool              `json:"blacklisted"`
	Lang         string            `json:"lang,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"` // author page, permalink, source-specific ids
	PostedAt     time.Time         `json:"posted_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	// MediaCheckedAt is when the backing media URL was last verified
	// reachable by the revalidation sweep. Zero = never checked.
	MediaCheckedAt time.Time `json:"media_checked_at,omitempty"`
}
