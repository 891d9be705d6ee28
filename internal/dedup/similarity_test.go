package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "amazing sunset timelapse", "amazing sunset timelapse", 1.0},
		{"retitled repost", "amazing sunset timelapse", "Amazing Sunset Timelapse (Remastered)", 1.0},
		{"disjoint", "amazing sunset timelapse", "robot dancing compilation", 0.0},
		{"half overlap", "amazing sunset views today", "amazing sunset", 1.0},
		{"short words ignored", "the cat and the dog", "a cat or a dog", 0.0}, // all words <= 3 chars
		{"empty", "", "whatever title", 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, TitleSimilarity(tc.a, tc.b), 0.001)
		})
	}
}

func TestTitleSimilaritySymmetric(t *testing.T) {
	a, b := "amazing generated sunset clip", "sunset clip from yesterday evening"
	assert.Equal(t, TitleSimilarity(a, b), TitleSimilarity(b, a))
}

func TestMediaID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://cdn.example.com/v/abc123.mp4", "abc123"},
		{"https://cdn.example.com/v/abc123", "abc123"},
		{"https://cdn.example.com/v/abc123/", "abc123"},
		{"https://cdn.example.com/", ""},
		{"://bad url", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, MediaID(tc.raw), "url %q", tc.raw)
	}
}
