package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipperFixture = `{
  "data": {
    "children": [
      {
        "data": {
          "id": "abc1",
          "title": "ai generated video of a storm",
          "selftext": "made with a text-to-video model",
          "link_flair_text": "Generated",
          "author": "alice",
          "ups": 321,
          "url": "https://cdn.example.com/v/abc1.mp4",
          "permalink": "/r/aivideos/comments/abc1/storm/",
          "community": "aivideos",
          "created_utc": 1767225600,
          "media": {"duration": 42.5}
        }
      },
      {
        "data": {
          "id": "",
          "title": "missing id, dropped",
          "url": "https://cdn.example.com/v/none.mp4"
        }
      },
      {
        "data": {
          "id": "abc2",
          "title": "no media url, dropped",
          "url": ""
        }
      }
    ]
  }
}`

func TestClipperFetchParsesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/aivideos/new.json", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(clipperFixture))
	}))
	defer srv.Close()

	c := NewClipper("aivideos", srv.URL, true)
	items, err := c.Fetch(context.Background(), Listing{Kind: "new"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "abc1", got.ExternalID)
	assert.Equal(t, "clipper", got.Platform)
	assert.Equal(t, "aivideos", got.Source)
	assert.Equal(t, "ai generated video of a storm", got.Title)
	assert.Equal(t, "Generated", got.Flair)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, 321, got.Score)
	assert.Equal(t, srv.URL+"/r/aivideos/comments/abc1/storm/", got.Permalink)
	assert.Equal(t, 42.5, got.DurationSec)
	assert.Equal(t, 2026, got.PostedAt.Year())
}

func TestClipperFetchSearchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/aivideos/search.json", r.URL.Path)
		assert.Equal(t, "ai video", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer srv.Close()

	c := NewClipper("aivideos", srv.URL, false)
	items, err := c.Fetch(context.Background(), Listing{Kind: "search", Term: "ai video"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClipperFetchStatusErrors(t *testing.T) {
	cases := []struct {
		status int
		class  Class
	}{
		{http.StatusTooManyRequests, ClassRateLimited},
		{http.StatusInternalServerError, ClassServerError},
		{http.StatusGatewayTimeout, ClassGatewayTimeout},
		{http.StatusNotFound, ClassNotFound},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := NewClipper("aivideos", srv.URL, false)
		_, err := c.Fetch(context.Background(), Listing{Kind: "hot"})
		srv.Close()

		require.Error(t, err, "status %d", tc.status)
		var srcErr *Error
		require.True(t, errors.As(err, &srcErr))
		assert.Equal(t, tc.class, srcErr.Class, "status %d", tc.status)
		assert.Equal(t, tc.status, srcErr.Status)
	}
}

func TestClipperFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClipper("aivideos", srv.URL, false)
	_, err := c.Fetch(context.Background(), Listing{Kind: "new"})

	var srcErr *Error
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ClassMalformed, srcErr.Class)
	assert.False(t, srcErr.Retryable())
}

func TestClipperFetchConnectionFailure(t *testing.T) {
	c := NewClipper("aivideos", "http://127.0.0.1:1", false)
	_, err := c.Fetch(context.Background(), Listing{Kind: "new"})

	var srcErr *Error
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ClassGatewayTimeout, srcErr.Class)
	assert.True(t, srcErr.Retryable())
}

func TestClipperUnsupportedListing(t *testing.T) {
	c := NewClipper("aivideos", "http://localhost:9", false)
	_, err := c.Fetch(context.Background(), Listing{Kind: "weird"})
	require.Error(t, err)
}
