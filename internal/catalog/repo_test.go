package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliphub/pkg/database"
	"cliphub/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func testClip(externalID, source string) models.Clip {
	return models.Clip{
		ExternalID:  externalID,
		Platform:    "clipper",
		Source:      source,
		Title:       "ai generated sunset over the bay",
		Author:      "alice",
		MediaURL:    "https://cdn.example.com/v/" + externalID + ".mp4",
		DurationSec: 31.5,
		Tags:        []string{"timelapse"},
		Likes:       12,
		Lang:        "en",
		Meta:        map[string]string{"flair": "generated"},
		PostedAt:    time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second),
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "a1", got.ExternalID)
	assert.Equal(t, "clipper", got.Platform)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, []string{"timelapse"}, got.Tags)
	assert.Equal(t, map[string]string{"flair": "generated"}, got.Meta)
	assert.Equal(t, 12, got.Likes)
	assert.False(t, got.NSFW)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.MediaCheckedAt.IsZero())
}

func TestInsertDuplicateExternalIDFails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, testClip("a1", "videos"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint")
}

func TestGetByIDMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKnownExternalIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, testClip("a2", "aivideos"))
	require.NoError(t, err)

	known, err := repo.KnownExternalIDs(ctx, "clipper", []string{"a1", "a2", "a3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a1": true, "a2": true}, known)

	// other platforms share external id namespaces without colliding
	known, err = repo.KnownExternalIDs(ctx, "rss", []string{"a1"})
	require.NoError(t, err)
	assert.Empty(t, known)

	known, err = repo.KnownExternalIDs(ctx, "clipper", nil)
	require.NoError(t, err)
	assert.Empty(t, known)
}

func TestReplaceContentPreservesIdentityAndCounters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)
	require.NoError(t, repo.IncrementViews(ctx, []int64{id}))

	before, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	repl := testClip("b7", "videos")
	repl.Title = "reposted with a better title"
	repl.Likes = 99
	require.NoError(t, repo.ReplaceContent(ctx, id, repl))

	after, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, id, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, 1, after.Views) // counters survive the swap
	assert.Equal(t, "b7", after.ExternalID)
	assert.Equal(t, "videos", after.Source)
	assert.Equal(t, "reposted with a better title", after.Title)
	assert.Equal(t, 99, after.Likes)
}

func TestReplaceContentAcrossPlatforms(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testClip("abc123", "aivideos"))
	require.NoError(t, err)

	// a same-author repost seen on the rss platform wins the replace
	repl := testClip("guid-777", "genart")
	repl.Platform = "rss"
	require.NoError(t, repo.ReplaceContent(ctx, id, repl))

	after, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, "rss", after.Platform)
	assert.Equal(t, "guid-777", after.ExternalID)

	// the new identity is what future cycles must pre-skip on
	known, err := repo.KnownExternalIDs(ctx, "rss", []string{"guid-777"})
	require.NoError(t, err)
	assert.True(t, known["guid-777"])

	known, err = repo.KnownExternalIDs(ctx, "clipper", []string{"abc123"})
	require.NoError(t, err)
	assert.False(t, known["abc123"])
}

func TestReplaceContentMissingRow(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.ReplaceContent(context.Background(), 42, testClip("x", "aivideos"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestModerationFlags(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)

	require.NoError(t, repo.MarkUnsafe(ctx, id))
	require.NoError(t, repo.Blacklist(ctx, id))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.NSFW)
	assert.True(t, got.Blacklisted)

	// flag mutations on missing rows are errors, not silent no-ops
	assert.Error(t, repo.MarkUnsafe(ctx, 999))
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, testClip("a1", "aivideos"))
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestQueryPageFiltersAndTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testClip("a1", "aivideos")
	b := testClip("b1", "videos")
	b.Title = "robot dancing compilation"
	b.Author = "bob"
	c := testClip("c1", "aivideos")
	c.NSFW = true
	d := testClip("d1", "aivideos")

	var dID int64
	for _, clip := range []models.Clip{a, b, c} {
		_, err := repo.Insert(ctx, clip)
		require.NoError(t, err)
	}
	var err error
	dID, err = repo.Insert(ctx, d)
	require.NoError(t, err)
	require.NoError(t, repo.Blacklist(ctx, dID))

	// default: no nsfw, no blacklisted
	clips, total, err := repo.QueryPage(ctx, PageQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, clips, 2)

	// nsfw included on request; blacklisted stays hidden
	_, total, err = repo.QueryPage(ctx, PageQuery{Limit: 10, IncludeNSFW: true})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// source filter
	clips, _, err = repo.QueryPage(ctx, PageQuery{Limit: 10, Source: "videos"})
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, "b1", clips[0].ExternalID)

	// keyword search hits title and author, case-insensitively
	clips, _, err = repo.QueryPage(ctx, PageQuery{Limit: 10, Q: "ROBOT"})
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, "b1", clips[0].ExternalID)

	clips, _, err = repo.QueryPage(ctx, PageQuery{Limit: 10, Q: "bob"})
	require.NoError(t, err)
	require.Len(t, clips, 1)
}

func TestQueryPageExcludeAndWindow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recent := testClip("r1", "aivideos")
	old := testClip("o1", "aivideos")
	old.PostedAt = time.Now().UTC().Add(-72 * time.Hour)

	recentID, err := repo.Insert(ctx, recent)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, old)
	require.NoError(t, err)

	// posted_at window
	clips, total, err := repo.QueryPage(ctx, PageQuery{
		Limit: 10,
		Since: time.Now().UTC().Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, clips, 1)
	assert.Equal(t, "r1", clips[0].ExternalID)

	// per-viewer exclusion
	clips, _, err = repo.QueryPage(ctx, PageQuery{Limit: 10, ExcludeIDs: []int64{recentID}})
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, "o1", clips[0].ExternalID)
}

func TestQueryPageSortViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lowID, err := repo.Insert(ctx, testClip("low", "aivideos"))
	require.NoError(t, err)
	highID, err := repo.Insert(ctx, testClip("high", "aivideos"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews(ctx, []int64{highID}))
	}
	require.NoError(t, repo.IncrementViews(ctx, []int64{lowID}))

	clips, _, err := repo.QueryPage(ctx, PageQuery{Limit: 10, Sort: "views"})
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, "high", clips[0].ExternalID)
	assert.Equal(t, 3, clips[0].Views)
}

func TestQueryPagePagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		clip := testClip(string(rune('a'+i))+"1", "aivideos")
		clip.PostedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Insert(ctx, clip)
		require.NoError(t, err)
	}

	first, total, err := repo.QueryPage(ctx, PageQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, first, 2)

	second, _, err := repo.QueryPage(ctx, PageQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[1].ID, second[1].ID)
}

func TestStaleMediaAndSetChecked(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	neverID, err := repo.Insert(ctx, testClip("never", "aivideos"))
	require.NoError(t, err)
	freshID, err := repo.Insert(ctx, testClip("fresh", "aivideos"))
	require.NoError(t, err)
	listedID, err := repo.Insert(ctx, testClip("listed", "aivideos"))
	require.NoError(t, err)

	require.NoError(t, repo.SetMediaChecked(ctx, freshID, time.Now().UTC()))
	require.NoError(t, repo.Blacklist(ctx, listedID))

	due, err := repo.StaleMedia(ctx, time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, neverID, due[0].ID)

	require.NoError(t, repo.SetMediaChecked(ctx, neverID, time.Now().UTC()))
	due, err = repo.StaleMedia(ctx, time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestFindRecentHelpers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	clip := testClip("a1", "aivideos")
	_, err := repo.Insert(ctx, clip)
	require.NoError(t, err)

	since := time.Now().UTC().Add(-24 * time.Hour)

	bySource, err := repo.FindRecentBySource(ctx, "clipper", "aivideos", since)
	require.NoError(t, err)
	assert.Len(t, bySource, 1)

	byAuthor, err := repo.FindRecentByAuthor(ctx, "alice", since)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)

	byURL, err := repo.FindByMediaURL(ctx, clip.MediaURL)
	require.NoError(t, err)
	assert.Len(t, byURL, 1)

	byURL, err = repo.FindByMediaURL(ctx, "https://nope.example.com/x.mp4")
	require.NoError(t, err)
	assert.Empty(t, byURL)
}
