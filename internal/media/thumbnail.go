package media

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PlaceholderThumbnail is returned whenever a real thumbnail cannot be
// resolved. Ingestion never blocks on thumbnails.
const PlaceholderThumbnail = "/static/thumb-placeholder.png"

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".m3u8": true, ".gifv": true,
}

// Thumbnails resolves a preview image for a media URL by scraping the
// page's og:image / twitter:image meta tags.
type Thumbnails struct {
	Client *http.Client
}

func NewThumbnails() *Thumbnails {
	return &Thumbnails{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Ensure returns a thumbnail reference for the media URL. Direct video
// files have no page to scrape, and any fetch or parse failure degrades to
// the placeholder; the error is informational only.
func (t *Thumbnails) Ensure(ctx context.Context, mediaURL string) (string, error) {
	if isDirectVideo(mediaURL) {
		return PlaceholderThumbnail, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return PlaceholderThumbnail, fmt.Errorf("thumbnail request: %w", err)
	}
	req.Header.Set("User-Agent", "cliphub/1.0")

	resp, err := t.Client.Do(req)
	if err != nil {
		return PlaceholderThumbnail, fmt.Errorf("thumbnail fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PlaceholderThumbnail, fmt.Errorf("thumbnail fetch: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PlaceholderThumbnail, fmt.Errorf("thumbnail parse: %w", err)
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="og:image:url"]`,
	} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}

	return PlaceholderThumbnail, nil
}

func isDirectVideo(mediaURL string) bool {
	trimmed := mediaURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return videoExtensions[strings.ToLower(path.Ext(trimmed))]
}
