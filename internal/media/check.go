package media

import (
	"context"
	"net/http"
	"time"

	"cliphub/internal/source"
)

// Checker verifies that a clip's backing media is still reachable. Errors
// are typed source errors so the shared retry wrapper can classify them.
type Checker struct {
	Client *http.Client
}

func NewChecker() *Checker {
	return &Checker{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Reachable issues a HEAD request against the media URL. Transient
// failures come back retryable; 404/410 style answers mean the media is
// gone for good.
func (c *Checker) Reachable(ctx context.Context, mediaURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return &source.Error{Source: "media-check", Class: source.ClassMalformed, Msg: err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", "cliphub/1.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		return &source.Error{Source: "media-check", Class: source.ClassGatewayTimeout, Msg: err.Error(), Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}
	return &source.Error{
		Source: "media-check",
		Class:  source.Classify(resp.StatusCode),
		Status: resp.StatusCode,
		Msg:    "media returned " + resp.Status,
	}
}
