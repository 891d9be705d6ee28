package feed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"cliphub/internal/catalog"
	"cliphub/internal/session"
	"cliphub/pkg/models"
)

// Catalog is the read interface the composer needs.
type Catalog interface {
	QueryPage(ctx context.Context, q catalog.PageQuery) ([]models.Clip, int, error)
}

// Request is one feed read.
type Request struct {
	Limit       int
	Offset      int
	Sort        string // "", "new", "views", "likes"
	Source      string
	Platform    string
	Q           string
	Lang        string
	IncludeNSFW bool
	WindowHours int // explicit trending window; forces constrained mode
	Fingerprint string
}

// Composer builds result pages. Constrained requests (explicit window,
// search, non-default sort) are a single filtered read; the default
// homepage request is composed from the stage's weighted buckets with
// per-viewer repeat avoidance.
type Composer struct {
	Catalog  Catalog
	Sessions *session.Store
	now      func() time.Time
}

func NewComposer(cat Catalog, sessions *session.Store) *Composer {
	return &Composer{Catalog: cat, Sessions: sessions, now: time.Now}
}

func (c *Composer) Compose(ctx context.Context, req Request) (models.FeedPage, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	if c.constrained(req) {
		return c.composeConstrained(ctx, req)
	}
	return c.composeStratified(ctx, req)
}

func (c *Composer) constrained(req Request) bool {
	return req.WindowHours > 0 || req.Q != "" || (req.Sort != "" && req.Sort != "new")
}

func (c *Composer) composeConstrained(ctx context.Context, req Request) (models.FeedPage, error) {
	q := c.baseQuery(req)
	q.Limit = req.Limit
	q.Offset = req.Offset
	if req.WindowHours > 0 {
		q.Since = c.now().Add(-time.Duration(req.WindowHours) * time.Hour)
	}

	clips, total, err := c.Catalog.QueryPage(ctx, q)
	if err != nil {
		return models.FeedPage{}, fmt.Errorf("constrained feed query: %w", err)
	}

	page := models.FeedPage{
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for _, clip := range clips {
		page.Items = append(page.Items, c.item(clip, "", ""))
	}
	return page, nil
}

func (c *Composer) composeStratified(ctx context.Context, req Request) (models.FeedPage, error) {
	pageIdx := req.Offset / req.Limit
	stage := StageFor(pageIdx)
	counts := Allocate(req.Limit, stage.Buckets)
	offsets := Allocate(req.Offset, stage.Buckets)

	// total reflects the filtered pool, not the per-viewer exclusions
	totalQ := c.baseQuery(req)
	totalQ.Limit = 1
	_, total, err := c.Catalog.QueryPage(ctx, totalQ)
	if err != nil {
		return models.FeedPage{}, fmt.Errorf("feed total query: %w", err)
	}

	exclude := c.sessionIDs(req.Fingerprint)
	now := c.now()

	page := models.FeedPage{
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
		Stage:  stage.Name,
	}

	for i, bucket := range stage.Buckets {
		if counts[i] == 0 {
			continue
		}

		q := c.baseQuery(req)
		q.Limit = counts[i]
		q.Offset = offsets[i]
		q.ExcludeIDs = exclude
		if bucket.Window > 0 {
			q.Since = now.Add(-bucket.Window)
		}

		clips, _, err := c.Catalog.QueryPage(ctx, q)
		if err != nil {
			return models.FeedPage{}, fmt.Errorf("feed bucket %s query: %w", bucket.Name, err)
		}

		for _, clip := range clips {
			page.Items = append(page.Items, c.item(clip, stage.Name, bucket.Name))
			exclude = append(exclude, clip.ID)
		}
	}

	// backfill from the unrestricted pool when the buckets ran dry
	if missing := req.Limit - len(page.Items); missing > 0 {
		q := c.baseQuery(req)
		q.Limit = missing
		q.ExcludeIDs = exclude

		clips, _, err := c.Catalog.QueryPage(ctx, q)
		if err != nil {
			return models.FeedPage{}, fmt.Errorf("feed backfill query: %w", err)
		}
		for _, clip := range clips {
			page.Items = append(page.Items, c.item(clip, stage.Name, "backfill"))
		}
	}

	return page, nil
}

func (c *Composer) baseQuery(req Request) catalog.PageQuery {
	return catalog.PageQuery{
		Source:      req.Source,
		Platform:    req.Platform,
		Q:           req.Q,
		Lang:        req.Lang,
		IncludeNSFW: req.IncludeNSFW,
		Sort:        req.Sort,
		Seed:        daySeed(c.now()),
	}
}

func (c *Composer) sessionIDs(fp string) []int64 {
	if c.Sessions == nil || fp == "" {
		return nil
	}
	return c.Sessions.Recent(fp)
}

func (c *Composer) item(clip models.Clip, stage, bucket string) models.FeedItem {
	return models.FeedItem{
		Clip:    clip,
		Hotness: Hotness(clip.Views, c.now().Sub(clip.PostedAt)),
		Stage:   stage,
		Bucket:  bucket,
	}
}

// Hotness is the popularity-over-time signal attached to every feed item:
// log(views / max(hoursSincePosted, 1) + 1), rounded to two decimals.
func Hotness(views int, age time.Duration) float64 {
	hours := age.Hours()
	if hours < 1 {
		hours = 1
	}
	return math.Round(math.Log(float64(views)/hours+1)*100) / 100
}

// daySeed rotates the pseudo-random ordering tiebreak once per day so that
// equal-scoring rows change order between days but stay stable within one.
func daySeed(now time.Time) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(now.UTC().Format("2006-01-02")))
	seed := int64(h.Sum32() % 104729)
	if seed == 0 {
		seed = 1
	}
	return seed
}
