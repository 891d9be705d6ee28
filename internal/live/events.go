package live

import "time"

// Event types carried over the hub.
const (
	ClipNewEvent         = "clip.new"
	ClipReplacedEvent    = "clip.replaced"
	ClipUnsafeEvent      = "clip.unsafe"
	ClipBlacklistedEvent = "clip.blacklisted"
	ClipRemovedEvent     = "clip.removed"
	CycleDoneEvent       = "cycle.done"
	HelloEvent           = "hello"
)

// ClipEvent announces a catalog mutation made by the ingestion pipeline.
type ClipEvent struct {
	Type       string    `json:"type"`
	ClipID     int64     `json:"clip_id"`
	ExternalID string    `json:"external_id"`
	Platform   string    `json:"platform"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	At         time.Time `json:"at"`
}

// CycleEvent summarizes one completed scrape cycle.
type CycleEvent struct {
	Type     string    `json:"type"`
	Sources  int       `json:"sources"`
	Fetched  int       `json:"fetched"`
	Inserted int       `json:"inserted"`
	Replaced int       `json:"replaced"`
	Skipped  int       `json:"skipped"`
	Rejected int       `json:"rejected"`
	Failed   int       `json:"failed"`
	Took     string    `json:"took"`
	At       time.Time `json:"at"`
}
