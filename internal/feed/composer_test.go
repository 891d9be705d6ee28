package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliphub/internal/catalog"
	"cliphub/internal/session"
	"cliphub/pkg/config"
	"cliphub/pkg/models"
)

// fakeCatalog records queries and pages through a fixed clip list.
type fakeCatalog struct {
	clips   []models.Clip
	queries []catalog.PageQuery
}

func (f *fakeCatalog) QueryPage(ctx context.Context, q catalog.PageQuery) ([]models.Clip, int, error) {
	f.queries = append(f.queries, q)

	excluded := make(map[int64]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = true
	}

	var pool []models.Clip
	for _, c := range f.clips {
		if excluded[c.ID] {
			continue
		}
		if !q.Since.IsZero() && c.PostedAt.Before(q.Since) {
			continue
		}
		pool = append(pool, c)
	}

	total := len(pool)
	if q.Offset >= len(pool) {
		return nil, total, nil
	}
	pool = pool[q.Offset:]
	if q.Limit > 0 && len(pool) > q.Limit {
		pool = pool[:q.Limit]
	}
	return pool, total, nil
}

func makeClips(n int, age time.Duration) []models.Clip {
	out := make([]models.Clip, n)
	for i := range out {
		out[i] = models.Clip{
			ID:       int64(i + 1),
			Title:    "clip",
			Views:    100,
			PostedAt: time.Now().UTC().Add(-age),
		}
	}
	return out
}

func newTestComposer(cat Catalog) (*Composer, *session.Store) {
	sessions := session.NewStore(config.Default().Session)
	return NewComposer(cat, sessions), sessions
}

func TestComposeConstrainedModeSelection(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(30, time.Hour)}
	c, _ := newTestComposer(cat)

	// explicit window, search and non-default sorts are single queries
	for _, req := range []Request{
		{Limit: 10, WindowHours: 24},
		{Limit: 10, Q: "sunset"},
		{Limit: 10, Sort: "views"},
		{Limit: 10, Sort: "likes"},
	} {
		cat.queries = nil
		page, err := c.Compose(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, cat.queries, 1, "request %+v", req)
		assert.Empty(t, page.Stage)
		assert.Len(t, page.Items, 10)
	}
}

func TestComposeConstrainedAppliesWindow(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(5, time.Hour)}
	c, _ := newTestComposer(cat)

	_, err := c.Compose(context.Background(), Request{Limit: 10, WindowHours: 24})
	require.NoError(t, err)

	require.Len(t, cat.queries, 1)
	assert.False(t, cat.queries[0].Since.IsZero())
}

func TestComposeStratifiedFillsLimit(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(50, time.Hour)}
	c, _ := newTestComposer(cat)

	page, err := c.Compose(context.Background(), Request{Limit: 12})
	require.NoError(t, err)

	assert.Len(t, page.Items, 12)
	assert.Equal(t, "fresh", page.Stage)
	assert.Equal(t, 50, page.Total)

	// no duplicates within the page
	seen := map[int64]bool{}
	for _, it := range page.Items {
		assert.False(t, seen[it.ID], "duplicate clip %d in page", it.ID)
		seen[it.ID] = true
	}
}

func TestComposeStratifiedStageByDepth(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(200, time.Hour)}
	c, _ := newTestComposer(cat)

	page, err := c.Compose(context.Background(), Request{Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, "balanced", page.Stage)

	page, err = c.Compose(context.Background(), Request{Limit: 20, Offset: 120})
	require.NoError(t, err)
	assert.Equal(t, "long-tail", page.Stage)
}

func TestComposeExcludesSessionHistory(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(40, time.Hour)}
	c, sessions := newTestComposer(cat)

	fp := session.Fingerprint("1.2.3.4", "agent")
	sessions.Remember(fp, []int64{1, 2, 3})

	page, err := c.Compose(context.Background(), Request{Limit: 10, Fingerprint: fp})
	require.NoError(t, err)

	for _, it := range page.Items {
		assert.NotContains(t, []int64{1, 2, 3}, it.ID)
	}
}

func TestComposeBackfillsWhenBucketsRunDry(t *testing.T) {
	// every clip is old, so the day/week buckets of the fresh stage are
	// empty and the all-time pool has to fill the page
	cat := &fakeCatalog{clips: makeClips(30, 60*24*time.Hour)}
	c, _ := newTestComposer(cat)

	page, err := c.Compose(context.Background(), Request{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)

	buckets := map[string]bool{}
	for _, it := range page.Items {
		buckets[it.Bucket] = true
	}
	assert.True(t, buckets["all"] || buckets["backfill"], "expected unwindowed items: %v", buckets)
}

func TestComposeItemCarriesHotness(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(5, 2*time.Hour)}
	c, _ := newTestComposer(cat)

	page, err := c.Compose(context.Background(), Request{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	assert.Greater(t, page.Items[0].Hotness, 0.0)
}

func TestComposeNormalizesLimits(t *testing.T) {
	cat := &fakeCatalog{clips: makeClips(30, time.Hour)}
	c, _ := newTestComposer(cat)

	page, err := c.Compose(context.Background(), Request{Limit: -5, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 0, page.Offset)
}
