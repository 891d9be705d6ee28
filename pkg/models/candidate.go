package models

import "time"

// Candidate is a raw clip observed on an external source. It lives only for
// the duration of one ingestion cycle: a source adapter produces it, the
// relevance filter and duplicate resolver consume it, and it is either
// persisted as a Clip or dropped.
type Candidate struct {
	ExternalID  string    `json:"external_id"` // id assigned by the source platform
	Platform    string    `json:"platform"`    // e.g. "clipper", "rss"
	Source      string    `json:"source"`      // community / feed the item was seen in
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Flair       string    `json:"flair,omitempty"`
	Author      string    `json:"author,omitempty"`
	Score       int       `json:"score"` // source-side popularity (upvotes etc.)
	MediaURL    string    `json:"media_url"`
	Permalink   string    `json:"permalink,omitempty"` // canonical post page on the source
	DurationSec float64   `json:"duration_sec,omitempty"` // 0 = unknown
	PostedAt    time.Time `json:"posted_at"`
}

// HasDuration reports whether the source told us how long the clip runs.
func (c Candidate) HasDuration() bool {
	return c.DurationSec > 0
}
