package ingest

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"cliphub/internal/dedup"
	"cliphub/internal/live"
	"cliphub/internal/media"
	"cliphub/internal/relevance"
	"cliphub/internal/source"
	"cliphub/pkg/config"
	"cliphub/pkg/models"
)

// ErrCycleRunning means a cycle was requested while the previous one is
// still going; the caller should just wait for the next tick.
var ErrCycleRunning = errors.New("ingest cycle already running")

// Thumbnailer resolves a preview image for a media URL.
type Thumbnailer interface {
	Ensure(ctx context.Context, mediaURL string) (string, error)
}

// Catalog is the slice of the store the orchestrator writes through.
type Catalog interface {
	KnownExternalIDs(ctx context.Context, platform string, ids []string) (map[string]bool, error)
	Insert(ctx context.Context, clip models.Clip) (int64, error)
	ReplaceContent(ctx context.Context, id int64, clip models.Clip) error
}

// CycleSink receives the summary of a finished cycle.
type CycleSink interface {
	BroadcastCycle(ev live.CycleEvent)
}

// Deps wires the orchestrator. Hub, Notify and Thumbs may be nil.
type Deps struct {
	Sources  []source.Client
	Filter   *relevance.Filter
	Resolver *dedup.Resolver
	Catalog  Catalog
	Thumbs   Thumbnailer
	Hub      *live.Hub
	Notify   CycleSink
	Cfg      config.IngestConfig
	Retry    source.RetryConfig
}

// Orchestrator runs the harvest pipeline: fetch listings from every
// configured source, drop already-known and off-topic candidates, let the
// resolver decide insert/replace/skip, and persist the survivors. Sources
// and items fail independently; one bad source never kills a cycle.
type Orchestrator struct {
	deps  Deps
	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration)
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		deps: deps,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		},
	}
}

// RunCycle executes one full harvest pass. Overlapping runs are refused,
// not queued: the next scheduled tick will pick the work up.
func (o *Orchestrator) RunCycle(ctx context.Context) (live.CycleEvent, error) {
	if !o.mu.TryLock() {
		log.Println("[ingest] cycle still running, skipping this tick")
		return live.CycleEvent{}, ErrCycleRunning
	}
	defer o.mu.Unlock()

	start := time.Now()
	ev := live.CycleEvent{Type: live.CycleDoneEvent, Sources: len(o.deps.Sources)}

	for i, src := range o.deps.Sources {
		if ctx.Err() != nil {
			break
		}
		o.harvestSource(ctx, src, &ev)
		if i < len(o.deps.Sources)-1 {
			o.sleep(ctx, o.deps.Cfg.Pace())
		}
	}

	ev.Took = time.Since(start).Round(time.Millisecond).String()
	ev.At = time.Now().UTC()

	log.Printf("[ingest] cycle done: %d sources, %d fetched, %d inserted, %d replaced, %d skipped, %d rejected, %d failed (%s)",
		ev.Sources, ev.Fetched, ev.Inserted, ev.Replaced, ev.Skipped, ev.Rejected, ev.Failed, ev.Took)

	if o.deps.Hub != nil {
		o.deps.Hub.PublishCycle(ev)
	}
	if o.deps.Notify != nil {
		o.deps.Notify.BroadcastCycle(ev)
	}
	return ev, ctx.Err()
}

// harvestSource pulls every listing of one source and runs the survivors
// through the pipeline. Listing failures are counted and passed over.
func (o *Orchestrator) harvestSource(ctx context.Context, src source.Client, ev *live.CycleEvent) {
	listings := source.Listings(o.deps.Cfg.SearchTerms)

	seen := make(map[string]bool)
	var candidates []models.Candidate

	for i, l := range listings {
		if ctx.Err() != nil {
			return
		}

		op := src.Name() + "/" + l.Kind
		items, err := source.WithRetry(ctx, o.deps.Retry, op, func(ctx context.Context) ([]models.Candidate, error) {
			return src.Fetch(ctx, l)
		})
		if err != nil {
			log.Printf("[ingest] %s: listing failed: %v", op, err)
			ev.Failed++
		}

		for _, c := range items {
			if c.ExternalID == "" || seen[c.ExternalID] {
				continue
			}
			seen[c.ExternalID] = true
			candidates = append(candidates, c)
		}

		if i < len(listings)-1 {
			o.sleep(ctx, o.deps.Cfg.Pace())
		}
	}

	if len(candidates) == 0 {
		return
	}
	ev.Fetched += len(candidates)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ExternalID)
	}
	known, err := o.deps.Catalog.KnownExternalIDs(ctx, src.Platform(), ids)
	if err != nil {
		// fail open: the resolver still catches duplicates downstream
		log.Printf("[ingest] %s: known-id lookup failed: %v", src.Name(), err)
		known = map[string]bool{}
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		if known[c.ExternalID] {
			ev.Skipped++
			continue
		}
		o.processCandidate(ctx, src, c, ev)
	}
}

// processCandidate runs filter, resolver and persistence for one item. All
// failures are per-item: log, count, move on.
func (o *Orchestrator) processCandidate(ctx context.Context, src source.Client, c models.Candidate, ev *live.CycleEvent) {
	if !o.deps.Filter.IsRelevant(c, src.Trusted()) {
		ev.Rejected++
		return
	}

	decision := o.deps.Resolver.Resolve(ctx, c)

	switch decision.Action {
	case models.ActionSkip:
		ev.Skipped++
		if m := decision.Match; m != nil {
			log.Printf("[ingest] skip %s/%s: duplicate of clip %d (%s, %.2f)",
				c.Platform, c.ExternalID, m.ClipID, m.Reason, m.Score)
		}

	case models.ActionReplace:
		clip := o.buildClip(ctx, c)
		if err := o.deps.Catalog.ReplaceContent(ctx, decision.ExistingID, clip); err != nil {
			log.Printf("[ingest] replace clip %d failed: %v", decision.ExistingID, err)
			ev.Failed++
			return
		}
		ev.Replaced++
		o.broadcastClip(live.ClipReplacedEvent, decision.ExistingID, c)

	case models.ActionInsert:
		clip := o.buildClip(ctx, c)
		id, err := o.deps.Catalog.Insert(ctx, clip)
		if err != nil {
			// a unique-constraint loss just means someone else inserted first
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				ev.Skipped++
				return
			}
			log.Printf("[ingest] insert %s/%s failed: %v", c.Platform, c.ExternalID, err)
			ev.Failed++
			return
		}
		ev.Inserted++
		o.broadcastClip(live.ClipNewEvent, id, c)
	}
}

// buildClip turns a surviving candidate into a catalog row, enriching it
// with a thumbnail and a language guess and carrying source provenance
// (permalink, flair) in the meta bag. Enrichment is best-effort.
func (o *Orchestrator) buildClip(ctx context.Context, c models.Candidate) models.Clip {
	clip := models.Clip{
		ExternalID:  c.ExternalID,
		Platform:    c.Platform,
		Source:      c.Source,
		Title:       c.Title,
		Author:      c.Author,
		MediaURL:    c.MediaURL,
		DurationSec: c.DurationSec,
		Likes:       c.Score,
		Lang:        media.DetectLang(c.Title + " " + c.Body),
		PostedAt:    c.PostedAt,
	}

	if c.Flair != "" {
		clip.Tags = []string{strings.ToLower(c.Flair)}
	}

	clip.Meta = map[string]string{}
	if c.Permalink != "" {
		clip.Meta["permalink"] = c.Permalink
	}
	if c.Flair != "" {
		clip.Meta["flair"] = c.Flair
	}

	if o.deps.Thumbs != nil {
		thumb, err := o.deps.Thumbs.Ensure(ctx, c.MediaURL)
		if err != nil {
			log.Printf("[ingest] thumbnail for %s/%s degraded: %v", c.Platform, c.ExternalID, err)
		}
		clip.ThumbnailURL = thumb
	} else {
		clip.ThumbnailURL = media.PlaceholderThumbnail
	}
	return clip
}

func (o *Orchestrator) broadcastClip(eventType string, clipID int64, c models.Candidate) {
	if o.deps.Hub == nil {
		return
	}
	o.deps.Hub.PublishClip(live.ClipEvent{
		Type:       eventType,
		ClipID:     clipID,
		ExternalID: c.ExternalID,
		Platform:   c.Platform,
		Source:     c.Source,
		Title:      c.Title,
		At:         time.Now().UTC(),
	})
}
