package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cliphub/pkg/config"
)

func newTestStore(maxIDs, ttlHours int) (*Store, *time.Time) {
	s := NewStore(config.SessionConfig{MaxIDs: maxIDs, TTLHours: ttlHours})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("1.2.3.4", "Mozilla/5.0", "en-US")
	b := Fingerprint("1.2.3.4", "Mozilla/5.0", "en-US")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha-256
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := Fingerprint("1.2.3.4", "Mozilla/5.0", "en-US")
	b := Fingerprint("en-US", "1.2.3.4", "Mozilla/5.0")
	assert.Equal(t, a, b)
}

func TestFingerprintCaseAndSpaceInsensitive(t *testing.T) {
	a := Fingerprint("Mozilla/5.0", " en-US ")
	b := Fingerprint("mozilla/5.0", "en-us")
	assert.Equal(t, a, b)
}

func TestFingerprintDifferentSignals(t *testing.T) {
	a := Fingerprint("1.2.3.4", "Mozilla/5.0")
	b := Fingerprint("1.2.3.5", "Mozilla/5.0")
	assert.NotEqual(t, a, b)
}

func TestRememberPreservesServeOrder(t *testing.T) {
	s, _ := newTestStore(10, 1)

	s.Remember("fp", []int64{1, 2})
	s.Remember("fp", []int64{2, 3, 4})

	assert.Equal(t, []int64{1, 2, 3, 4}, s.Recent("fp"))
}

func TestRememberEvictsOldestOnOverflow(t *testing.T) {
	s, _ := newTestStore(3, 1)

	s.Remember("fp", []int64{1, 2, 3})
	s.Remember("fp", []int64{4, 5})

	assert.Equal(t, []int64{3, 4, 5}, s.Recent("fp"))

	// evicted ids can be remembered again
	s.Remember("fp", []int64{1})
	assert.Equal(t, []int64{4, 5, 1}, s.Recent("fp"))
}

func TestRecentExpiresAfterTTL(t *testing.T) {
	s, now := newTestStore(10, 1)

	s.Remember("fp", []int64{1, 2})
	*now = now.Add(30 * time.Minute)
	assert.Equal(t, []int64{1, 2}, s.Recent("fp"))

	*now = now.Add(31 * time.Minute)
	assert.Nil(t, s.Recent("fp"))
	assert.Equal(t, 0, s.Len())
}

func TestRememberResetsExpiredEntry(t *testing.T) {
	s, now := newTestStore(10, 1)

	s.Remember("fp", []int64{1, 2})
	*now = now.Add(2 * time.Hour)
	s.Remember("fp", []int64{3})

	// the stale ids are gone, not merged
	assert.Equal(t, []int64{3}, s.Recent("fp"))
}

func TestStoreIgnoresEmptyInput(t *testing.T) {
	s, _ := newTestStore(10, 1)

	s.Remember("", []int64{1})
	s.Remember("fp", nil)

	assert.Nil(t, s.Recent(""))
	assert.Nil(t, s.Recent("fp"))
	assert.Equal(t, 0, s.Len())
}

func TestStoreIsolatesFingerprints(t *testing.T) {
	s, _ := newTestStore(10, 1)

	s.Remember("a", []int64{1})
	s.Remember("b", []int64{2})

	assert.Equal(t, []int64{1}, s.Recent("a"))
	assert.Equal(t, []int64{2}, s.Recent("b"))
	assert.Equal(t, 2, s.Len())
}
