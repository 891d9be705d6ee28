package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"cliphub/pkg/config"
)

// sweepPressure is the entry count past which a write also sweeps the
// whole map for expired entries.
const sweepPressure = 10000

// Fingerprint derives a viewer identity from client signals. Signals are
// sorted before hashing so their order never changes the result, and the
// hash is one-way: the fingerprint is only ever used for short-term
// repeat-avoidance, never authentication.
func Fingerprint(signals ...string) string {
	cleaned := make([]string, 0, len(signals))
	for _, s := range signals {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	sort.Strings(cleaned)

	sum := sha256.Sum256([]byte(strings.Join(cleaned, "|")))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	ids     []int64
	seen    map[int64]bool
	updated time.Time
}

// Store is process-local, best-effort memory of what each viewer was
// recently served. Its only contract is "avoid showing a returning viewer
// the same items for roughly TTL hours" — it is not durable and not shared
// across instances.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxIDs  int
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(cfg config.SessionConfig) *Store {
	maxIDs := cfg.MaxIDs
	if maxIDs <= 0 {
		maxIDs = 300
	}
	return &Store{
		entries: make(map[string]*entry),
		maxIDs:  maxIDs,
		ttl:     cfg.TTL(),
		now:     time.Now,
	}
}

// Remember records ids as served to the fingerprint. Already-known ids keep
// their original position; when the list overflows the cap the oldest ids
// fall off.
func (s *Store) Remember(fp string, ids []int64) {
	if fp == "" || len(ids) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := s.entries[fp]
	if e == nil || now.Sub(e.updated) > s.ttl {
		e = &entry{seen: make(map[int64]bool)}
		s.entries[fp] = e
	}

	for _, id := range ids {
		if e.seen[id] {
			continue
		}
		e.seen[id] = true
		e.ids = append(e.ids, id)
	}

	if over := len(e.ids) - s.maxIDs; over > 0 {
		for _, id := range e.ids[:over] {
			delete(e.seen, id)
		}
		e.ids = append([]int64(nil), e.ids[over:]...)
	}

	e.updated = now

	if len(s.entries) > sweepPressure {
		s.sweepLocked(now)
	}
}

// Recent returns the remembered ids in serve order, or nil when the entry
// is unknown or expired.
func (s *Store) Recent(fp string) []int64 {
	if fp == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[fp]
	if e == nil {
		return nil
	}
	if s.now().Sub(e.updated) > s.ttl {
		delete(s.entries, fp)
		return nil
	}

	out := make([]int64, len(e.ids))
	copy(out, e.ids)
	return out
}

// Len reports how many fingerprints are currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweepLocked(now time.Time) {
	for fp, e := range s.entries {
		if now.Sub(e.updated) > s.ttl {
			delete(s.entries, fp)
		}
	}
}
