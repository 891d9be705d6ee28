package models

// FeedItem is a catalog clip dressed up for a feed response: the stored row
// plus a derived popularity-over-time signal and provenance for debugging
// why the composer picked it.
type FeedItem struct {
	Clip
	Hotness float64 `json:"hotness"`          // log(views/max(hoursSince,1)+1), 2 decimals
	Stage   string  `json:"stage,omitempty"`  // composition stage label
	Bucket  string  `json:"bucket,omitempty"` // time-window bucket within the stage
}

// FeedPage is one composed result page.
type FeedPage struct {
	Items  []FeedItem `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	Stage  string     `json:"stage,omitempty"`
}
