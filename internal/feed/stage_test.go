package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStageFor(t *testing.T) {
	assert.Equal(t, "fresh", StageFor(0).Name)
	assert.Equal(t, "fresh", StageFor(1).Name)
	assert.Equal(t, "balanced", StageFor(2).Name)
	assert.Equal(t, "balanced", StageFor(4).Name)
	assert.Equal(t, "long-tail", StageFor(5).Name)
	assert.Equal(t, "long-tail", StageFor(50).Name)
}

func TestAllocateLargestRemainder(t *testing.T) {
	buckets := []Bucket{
		{Name: "a", Weight: 0.7},
		{Name: "b", Weight: 0.2},
		{Name: "c", Weight: 0.1},
	}

	// floors are 8/2/1 = 11; the leftover slot goes to the heaviest bucket
	counts := Allocate(12, buckets)
	assert.Equal(t, []int{9, 2, 1}, counts)
	assert.Equal(t, 12, counts[0]+counts[1]+counts[2])
}

func TestAllocateSumsToLimit(t *testing.T) {
	for _, stage := range []Stage{stageFresh, stageBalanced, stageLongTail} {
		for limit := 1; limit <= 40; limit++ {
			counts := Allocate(limit, stage.Buckets)
			total := 0
			for _, c := range counts {
				total += c
			}
			assert.Equal(t, limit, total, "stage %s limit %d", stage.Name, limit)
		}
	}
}

func TestAllocateNoStarvation(t *testing.T) {
	buckets := []Bucket{
		{Name: "a", Weight: 0.9},
		{Name: "b", Weight: 0.05},
		{Name: "c", Weight: 0.05},
	}

	// limit covers the bucket count, so every weighted bucket gets a slot
	counts := Allocate(10, buckets)
	for i, c := range counts {
		assert.Greater(t, c, 0, "bucket %d starved: %v", i, counts)
	}
}

func TestAllocateTinyLimit(t *testing.T) {
	counts := Allocate(1, stageFresh.Buckets)
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 1, total)
}

func TestAllocateZeroAndEmpty(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0}, Allocate(0, stageFresh.Buckets))
	assert.Empty(t, Allocate(10, nil))
}

func TestHotness(t *testing.T) {
	// fresher clips with the same views score hotter
	fresh := Hotness(1000, 2*time.Hour)
	old := Hotness(1000, 100*time.Hour)
	assert.Greater(t, fresh, old)

	// ages under an hour are clamped, not amplified
	assert.Equal(t, Hotness(500, time.Minute), Hotness(500, time.Hour))

	assert.Equal(t, 0.0, Hotness(0, time.Hour))
}

func TestDaySeedStableWithinDay(t *testing.T) {
	a := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 3, 15, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, daySeed(a), daySeed(b))
	assert.NotEqual(t, daySeed(a), daySeed(c))
	assert.Greater(t, daySeed(a), int64(0))
}
