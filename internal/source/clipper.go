package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cliphub/pkg/models"
)

const defaultClipperBase = "https://api.clipper.example.com"

// Clipper fetches video posts from a clipper-style community API
// (reddit-shaped JSON listings). One Clipper instance covers one community.
type Clipper struct {
	Community string
	BaseURL   string
	Client    *http.Client
	Limit     int // items per listing call
	IsTrusted bool
}

func NewClipper(community, baseURL string, trusted bool) *Clipper {
	if baseURL == "" {
		baseURL = defaultClipperBase
	}
	return &Clipper{
		Community: community,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: 12 * time.Second},
		Limit:     50,
		IsTrusted: trusted,
	}
}

func (s *Clipper) Name() string     { return s.Community }
func (s *Clipper) Platform() string { return "clipper" }
func (s *Clipper) Trusted() bool    { return s.IsTrusted }

// listing envelope as served by the clipper API
type clipperResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID        string  `json:"id"`
				Title     string  `json:"title"`
				Selftext  string  `json:"selftext"`
				Flair     string  `json:"link_flair_text"`
				Author    string  `json:"author"`
				Ups       int     `json:"ups"`
				URL       string  `json:"url"`
				Permalink string  `json:"permalink"`
				Community string  `json:"community"`
				CreatedAt float64 `json:"created_utc"`
				Media     struct {
					Duration float64 `json:"duration"`
				} `json:"media"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *Clipper) Fetch(ctx context.Context, l Listing) ([]models.Candidate, error) {
	u, err := s.listingURL(l)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("clipper %s: build request: %w", s.Community, err)
	}
	req.Header.Set("User-Agent", "cliphub/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &Error{Source: s.Community, Class: ClassGatewayTimeout, Msg: err.Error(), Err: err}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(s.Community, resp.StatusCode,
			fmt.Sprintf("listing %s returned %d", l.Kind, resp.StatusCode))
	}

	var cr clipperResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, &Error{Source: s.Community, Class: ClassMalformed, Msg: "decode listing: " + err.Error(), Err: err}
	}

	out := make([]models.Candidate, 0, len(cr.Data.Children))
	for _, child := range cr.Data.Children {
		d := child.Data
		if d.ID == "" || d.URL == "" {
			continue
		}

		community := d.Community
		if community == "" {
			community = s.Community
		}

		out = append(out, models.Candidate{
			ExternalID:  d.ID,
			Platform:    s.Platform(),
			Source:      community,
			Title:       d.Title,
			Body:        d.Selftext,
			Flair:       d.Flair,
			Author:      d.Author,
			Score:       d.Ups,
			MediaURL:    d.URL,
			Permalink:   s.permalinkURL(d.Permalink),
			DurationSec: d.Media.Duration,
			PostedAt:    time.Unix(int64(d.CreatedAt), 0).UTC(),
		})
	}
	return out, nil
}

// permalinkURL resolves the API's relative permalink path against the base.
func (s *Clipper) permalinkURL(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return s.BaseURL + "/" + strings.TrimLeft(p, "/")
}

func (s *Clipper) listingURL(l Listing) (string, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = 50
	}

	switch l.Kind {
	case "new", "hot", "top":
		u, err := url.Parse(fmt.Sprintf("%s/r/%s/%s.json", s.BaseURL, s.Community, l.Kind))
		if err != nil {
			return "", fmt.Errorf("clipper %s: bad base url: %w", s.Community, err)
		}
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", limit))
		u.RawQuery = q.Encode()
		return u.String(), nil
	case "search":
		u, err := url.Parse(fmt.Sprintf("%s/r/%s/search.json", s.BaseURL, s.Community))
		if err != nil {
			return "", fmt.Errorf("clipper %s: bad base url: %w", s.Community, err)
		}
		q := u.Query()
		q.Set("q", l.Term)
		q.Set("restrict_sr", "1")
		q.Set("limit", fmt.Sprintf("%d", limit))
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("clipper %s: unsupported listing %q", s.Community, l.Kind)
	}
}
