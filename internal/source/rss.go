package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"cliphub/pkg/models"
)

// RSS fetches clips from a syndicated media feed. Feeds are flat streams,
// so only the "new" listing yields items; ranked listings and search have
// no feed equivalent and return nothing.
type RSS struct {
	FeedName  string
	FeedURL   string
	Parser    *gofeed.Parser
	IsTrusted bool
}

func NewRSS(name, feedURL string, trusted bool) *RSS {
	return &RSS{
		FeedName:  name,
		FeedURL:   feedURL,
		Parser:    gofeed.NewParser(),
		IsTrusted: trusted,
	}
}

func (s *RSS) Name() string     { return s.FeedName }
func (s *RSS) Platform() string { return "rss" }
func (s *RSS) Trusted() bool    { return s.IsTrusted }

func (s *RSS) Fetch(ctx context.Context, l Listing) ([]models.Candidate, error) {
	if l.Kind != "new" {
		return nil, nil
	}

	feed, err := s.Parser.ParseURLWithContext(s.FeedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, statusError(s.FeedName, httpErr.StatusCode, httpErr.Status)
		}
		return nil, &Error{Source: s.FeedName, Class: ClassMalformed, Msg: err.Error(), Err: err}
	}

	out := make([]models.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		id := item.GUID
		if id == "" {
			id = item.Link
		}
		media := enclosureURL(item)
		if id == "" || media == "" {
			continue
		}

		author := ""
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			author = item.Authors[0].Name
		}

		posted := time.Now().UTC()
		if item.PublishedParsed != nil {
			posted = item.PublishedParsed.UTC()
		}

		out = append(out, models.Candidate{
			ExternalID: id,
			Platform:   s.Platform(),
			Source:     s.FeedName,
			Title:      item.Title,
			Body:       item.Description,
			Author:     author,
			MediaURL:   media,
			Permalink:  item.Link,
			PostedAt:   posted,
		})
	}
	return out, nil
}

// enclosureURL picks the first video enclosure, falling back to the item
// link when the feed carries media only as links.
func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "video/") || enc.Type == "" {
			return enc.URL
		}
	}
	return item.Link
}
