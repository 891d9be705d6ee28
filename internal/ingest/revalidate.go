package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"cliphub/internal/source"
	"cliphub/pkg/models"
)

// ReachChecker verifies that a media URL still answers.
type ReachChecker interface {
	Reachable(ctx context.Context, mediaURL string) error
}

// RevalidateStore is the slice of the catalog the sweep reads and writes.
type RevalidateStore interface {
	StaleMedia(ctx context.Context, checkedBefore time.Time, limit int) ([]models.Clip, error)
	SetMediaChecked(ctx context.Context, id int64, at time.Time) error
	Blacklist(ctx context.Context, id int64) error
}

// Revalidator periodically re-verifies that cataloged media URLs still
// resolve. Entries whose media is gone for good get blacklisted; entries
// that merely time out stay due so the next sweep tries again.
type Revalidator struct {
	Store   RevalidateStore
	Checker ReachChecker
	Retry   source.RetryConfig
	Batch   int
	MaxAge  time.Duration // how long a successful check stays fresh
}

func NewRevalidator(store RevalidateStore, checker ReachChecker, batch int) *Revalidator {
	return &Revalidator{
		Store:   store,
		Checker: checker,
		Retry:   source.DefaultRetry(),
		Batch:   batch,
		MaxAge:  24 * time.Hour,
	}
}

// Sweep checks one batch of stale entries and reports (checked, removed).
func (r *Revalidator) Sweep(ctx context.Context) (int, int, error) {
	cutoff := time.Now().Add(-r.MaxAge)
	batch, err := r.Store.StaleMedia(ctx, cutoff, r.Batch)
	if err != nil {
		return 0, 0, err
	}

	checked, removed := 0, 0
	for _, clip := range batch {
		if ctx.Err() != nil {
			return checked, removed, ctx.Err()
		}

		_, err := source.WithRetry(ctx, r.Retry, "revalidate/"+clip.ExternalID,
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, r.Checker.Reachable(ctx, clip.MediaURL)
			})
		if err == nil {
			if err := r.Store.SetMediaChecked(ctx, clip.ID, time.Now()); err != nil {
				log.Printf("[revalidate] mark checked clip %d: %v", clip.ID, err)
			}
			checked++
			continue
		}

		var srcErr *source.Error
		if errors.As(err, &srcErr) && gone(srcErr) {
			log.Printf("[revalidate] clip %d media gone (%s), blacklisting", clip.ID, srcErr.Class)
			if err := r.Store.Blacklist(ctx, clip.ID); err != nil {
				log.Printf("[revalidate] blacklist clip %d: %v", clip.ID, err)
				continue
			}
			removed++
			continue
		}

		// transient failure: leave the row due, the next sweep retries it
		log.Printf("[revalidate] clip %d check inconclusive: %v", clip.ID, err)
	}

	if len(batch) > 0 {
		log.Printf("[revalidate] sweep done: %d checked, %d removed of %d due", checked, removed, len(batch))
	}
	return checked, removed, nil
}

// gone reports whether the media is permanently unavailable, as opposed to
// temporarily unreachable.
func gone(err *source.Error) bool {
	return err.Class == source.ClassNotFound || err.Class == source.ClassForbidden
}
