package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cliphub/pkg/config"
	"cliphub/pkg/models"
)

func testFilter() *Filter {
	return New(config.RelevanceConfig{
		Primary:         []string{"ai", "stable diffusion"},
		Secondary:       []string{"video", "clip"},
		GenerationVerbs: []string{"generated", "made"},
		Excluded:        []string{"giveaway"},
	})
}

func TestIsRelevantRequiresAllThreeSignals(t *testing.T) {
	f := testFilter()

	cases := []struct {
		name  string
		title string
		want  bool
	}{
		{"full conjunction", "this ai generated video is wild", true},
		{"verb before topic", "generated with ai, short video", true},
		{"primary only", "ai is taking over", false},
		{"primary and secondary, no verb", "ai video compilation", false},
		{"secondary and verb, no primary", "video generated by hand", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := f.IsRelevant(models.Candidate{Title: tc.title}, false)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsRelevantWordBoundaries(t *testing.T) {
	f := testFilter()

	// "air" must not satisfy the "ai" term
	assert.False(t, f.IsRelevant(models.Candidate{
		Title: "fresh air video generated buzz",
	}, false))

	// real word-boundary hit still passes
	assert.True(t, f.IsRelevant(models.Candidate{
		Title: "ai generated video of fresh air",
	}, false))
}

func TestIsRelevantProximityWindow(t *testing.T) {
	f := testFilter()

	// three words between topic and verb: still a pattern
	assert.True(t, f.IsRelevant(models.Candidate{
		Title: "ai one two three generated video",
	}, false))

	// too far apart: no pattern
	assert.False(t, f.IsRelevant(models.Candidate{
		Title: "ai one two three four five generated video",
	}, false))
}

func TestIsRelevantChecksBodyAndFlair(t *testing.T) {
	f := testFilter()

	assert.True(t, f.IsRelevant(models.Candidate{
		Title: "check this out",
		Body:  "an ai generated clip I found",
	}, false))

	assert.True(t, f.IsRelevant(models.Candidate{
		Title: "ai generated scene",
		Flair: "video",
	}, false))
}

func TestTrustedSkipsConjunctionButNotExclusion(t *testing.T) {
	f := testFilter()

	// trusted passes without any topical terms
	assert.True(t, f.IsRelevant(models.Candidate{Title: "weekly roundup"}, true))

	// exclusion rejects even trusted sources
	assert.False(t, f.IsRelevant(models.Candidate{
		Title: "ai generated video giveaway",
	}, true))
}

func TestMultiWordPrimaryTerm(t *testing.T) {
	f := testFilter()

	assert.True(t, f.IsRelevant(models.Candidate{
		Title: "stable diffusion generated this video",
	}, false))
}
