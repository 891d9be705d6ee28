package dedup

import (
	"context"
	"log"
	"math"
	"time"

	"cliphub/pkg/config"
	"cliphub/pkg/models"
)

// CatalogReader is the slice of the catalog store the resolver needs to
// build its comparison pool.
type CatalogReader interface {
	FindRecentBySource(ctx context.Context, platform, source string, since time.Time) ([]models.Clip, error)
	FindRecentByAuthor(ctx context.Context, author string, since time.Time) ([]models.Clip, error)
	FindByMediaURL(ctx context.Context, mediaURL string) ([]models.Clip, error)
}

// Resolver scores a candidate against recent catalog entries and returns a
// pure decision value; it never writes. Any internal failure fails open to
// Insert so one deduction fault cannot stall an ingestion cycle — the cost
// is an occasional duplicate under sustained store errors, which is the
// availability tradeoff we want here.
type Resolver struct {
	catalog CatalogReader
	cfg     config.DedupConfig
}

func NewResolver(catalog CatalogReader, cfg config.DedupConfig) *Resolver {
	return &Resolver{catalog: catalog, cfg: cfg}
}

// Resolve decides insert / replace / skip for one candidate.
func (r *Resolver) Resolve(ctx context.Context, c models.Candidate) models.Decision {
	pool, err := r.pool(ctx, c)
	if err != nil {
		log.Printf("[dedup] pool query failed for %s/%s, failing open to insert: %v",
			c.Platform, c.ExternalID, err)
		return models.Insert()
	}

	var (
		best      *models.Clip
		bestScore float64
		bestWhy   string
	)

	for i := range pool {
		clip := &pool[i]
		score, why := r.score(c, clip)
		if score > bestScore {
			best, bestScore, bestWhy = clip, score, why
		}
		if score >= 1.0 {
			break // exact match, no point scoring the rest
		}
	}

	if best == nil {
		return models.Insert()
	}

	threshold := r.cfg.Threshold
	crossAuthor := sameAuthor(c, best) && best.Source != c.Source
	if crossAuthor {
		threshold = r.cfg.CrossAuthorThreshold
	}

	if bestScore < threshold && bestScore < 1.0 {
		return models.Insert()
	}

	match := &models.DuplicateMatch{
		CandidateID: c.ExternalID,
		ClipID:      best.ID,
		Score:       math.Min(roundScore(bestScore), 1.0),
		Reason:      bestWhy,
	}

	// Last-writer-wins on score: the more popular observation survives.
	if c.Score > best.Likes {
		return models.Replace(best.ID, match)
	}
	return models.Skip(best.ID, match)
}

// pool unions the three overlapping candidate sets (same-source recent,
// same-author cross-source, exact media URL) deduplicated by id.
func (r *Resolver) pool(ctx context.Context, c models.Candidate) ([]models.Clip, error) {
	window := time.Duration(r.cfg.WindowHours) * time.Hour
	if window <= 0 {
		window = 48 * time.Hour
	}
	since := time.Now().Add(-window)

	seen := make(map[int64]bool)
	var pool []models.Clip

	add := func(clips []models.Clip) {
		for _, clip := range clips {
			if !seen[clip.ID] {
				seen[clip.ID] = true
				pool = append(pool, clip)
			}
		}
	}

	bySource, err := r.catalog.FindRecentBySource(ctx, c.Platform, c.Source, since)
	if err != nil {
		return nil, err
	}
	add(bySource)

	if c.Author != "" {
		byAuthor, err := r.catalog.FindRecentByAuthor(ctx, c.Author, since)
		if err != nil {
			return nil, err
		}
		add(byAuthor)
	}

	byURL, err := r.catalog.FindByMediaURL(ctx, c.MediaURL)
	if err != nil {
		return nil, err
	}
	add(byURL)

	return pool, nil
}

// score computes the weighted additive similarity of candidate and clip.
// An exact media URL short-circuits to 1.0.
func (r *Resolver) score(c models.Candidate, clip *models.Clip) (float64, string) {
	if c.MediaURL != "" && c.MediaURL == clip.MediaURL {
		return 1.0, models.MatchExactURL
	}

	score := 0.0
	reason := models.MatchTitleCombo

	if TitleSimilarity(c.Title, clip.Title) >= r.cfg.TitleSimilarityMin {
		score += r.cfg.TitleWeight
	}

	if c.HasDuration() && clip.DurationSec > 0 {
		if math.Abs(c.DurationSec-clip.DurationSec) <= r.cfg.DurationToleranceSec {
			score += r.cfg.DurationWeight
		}
	}

	if sameAuthor(c, clip) {
		if clip.Source != c.Source {
			score += r.cfg.AuthorCrossWeight
			reason = models.MatchCrossSource
		} else {
			score += r.cfg.AuthorSameWeight
		}
	}

	// same embedded media identifier counts only within one source, where
	// the id namespace is actually shared
	if clip.Source == c.Source && clip.Platform == c.Platform {
		if id := MediaID(c.MediaURL); id != "" && id == MediaID(clip.MediaURL) {
			score += r.cfg.MediaIDWeight
		}
	}

	return score, reason
}

func sameAuthor(c models.Candidate, clip *models.Clip) bool {
	return c.Author != "" && c.Author == clip.Author
}

func roundScore(s float64) float64 {
	return math.Round(s*100) / 100
}
