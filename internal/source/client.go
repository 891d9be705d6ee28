package source

import (
	"context"

	"cliphub/pkg/models"
)

// Listing identifies one way of reading a source: a ranked listing or a
// term search.
type Listing struct {
	Kind string // "new", "hot", "top" or "search"
	Term string // set when Kind == "search"
}

// Listings returns the listing calls to make against a source for the
// given search terms.
func Listings(searchTerms []string) []Listing {
	out := []Listing{{Kind: "new"}, {Kind: "hot"}, {Kind: "top"}}
	for _, t := range searchTerms {
		if t == "" {
			continue
		}
		out = append(out, Listing{Kind: "search", Term: t})
	}
	return out
}

// Client is implemented by each external source adapter. Fetch maps the
// source's own wire format into Candidates; failures come back as *Error
// so the retry wrapper can classify them.
type Client interface {
	Name() string
	Platform() string
	Trusted() bool
	Fetch(ctx context.Context, l Listing) ([]models.Candidate, error)
}
