package feed

import (
	"sort"
	"time"
)

// Bucket is one weighted time-window slice of a stage. Window 0 means the
// unrestricted, all-time pool.
type Bucket struct {
	Name   string
	Window time.Duration
	Weight float64
}

// Stage is the pagination-depth-dependent bucket layout: early pages lean
// on fresh content, deep pages surface the long tail. Stages are derived
// purely from the page index and never change within a request.
type Stage struct {
	Name    string
	Buckets []Bucket
}

const day = 24 * time.Hour

var (
	stageFresh = Stage{
		Name: "fresh",
		Buckets: []Bucket{
			{Name: "day", Window: day, Weight: 0.5},
			{Name: "week", Window: 7 * day, Weight: 0.3},
			{Name: "all", Window: 0, Weight: 0.2},
		},
	}
	stageBalanced = Stage{
		Name: "balanced",
		Buckets: []Bucket{
			{Name: "week", Window: 7 * day, Weight: 0.5},
			{Name: "month", Window: 30 * day, Weight: 0.3},
			{Name: "all", Window: 0, Weight: 0.2},
		},
	}
	stageLongTail = Stage{
		Name: "long-tail",
		Buckets: []Bucket{
			{Name: "month", Window: 30 * day, Weight: 0.3},
			{Name: "all", Window: 0, Weight: 0.7},
		},
	}
)

// StageFor picks the stage for a page index.
func StageFor(page int) Stage {
	switch {
	case page <= 1:
		return stageFresh
	case page <= 4:
		return stageBalanced
	default:
		return stageLongTail
	}
}

// Allocate splits limit across the buckets by largest remainder: every
// bucket gets floor(limit*weight), the shortfall goes to the largest-weight
// buckets first, and no bucket with positive weight is starved as long as
// limit covers the bucket count (the deficit is trimmed from the
// smallest-weight bucket holding more than one slot).
func Allocate(limit int, buckets []Bucket) []int {
	n := len(buckets)
	counts := make([]int, n)
	if n == 0 || limit <= 0 {
		return counts
	}

	var sum float64
	for _, b := range buckets {
		sum += b.Weight
	}
	if sum <= 0 {
		// degenerate config: spread evenly
		for i := range counts {
			counts[i] = limit / n
		}
		counts[0] += limit - (limit/n)*n
		return counts
	}

	assigned := 0
	for i, b := range buckets {
		counts[i] = int(float64(limit) * b.Weight / sum)
		assigned += counts[i]
	}

	// indexes ordered by weight, heaviest first
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return buckets[order[a]].Weight > buckets[order[b]].Weight
	})

	for short := limit - assigned; short > 0; {
		for _, i := range order {
			if short == 0 {
				break
			}
			counts[i]++
			short--
		}
	}

	if limit >= n {
		for _, i := range order {
			if buckets[i].Weight <= 0 || counts[i] > 0 {
				continue
			}
			// take a slot from the smallest-weight bucket that can spare one
			for j := n - 1; j >= 0; j-- {
				k := order[j]
				if k != i && counts[k] > 1 {
					counts[k]--
					counts[i]++
					break
				}
			}
		}
	}

	return counts
}
