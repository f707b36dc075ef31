package market

import (
	"sort"

	"DepthView/internal/domain/models"
)

// OpenInterestSeries is an append-only time series merged from periodic polls
// and historical backfill. Points are never mutated, only appended or cleared
// wholesale on instrument switch.
type OpenInterestSeries struct {
	points []models.OpenInterestPoint
}

func NewOpenInterestSeries() *OpenInterestSeries {
	return &OpenInterestSeries{}
}

// Append adds one polled sample. Samples at or before the latest stored time
// are ignored, which keeps the poll and backfill paths from duplicating
// points around their seam.
func (s *OpenInterestSeries) Append(p models.OpenInterestPoint) bool {
	if n := len(s.points); n > 0 && p.Time <= s.points[n-1].Time {
		return false
	}
	s.points = append(s.points, p)
	return true
}

// Seed merges a historical batch into the series, keeping the result sorted
// and unique by time. Existing points win over backfill at the same time.
func (s *OpenInterestSeries) Seed(points []models.OpenInterestPoint) {
	if len(points) == 0 {
		return
	}
	seen := make(map[int64]struct{}, len(s.points))
	for _, p := range s.points {
		seen[p.Time] = struct{}{}
	}
	for _, p := range points {
		if _, ok := seen[p.Time]; ok {
			continue
		}
		seen[p.Time] = struct{}{}
		s.points = append(s.points, p)
	}
	sort.Slice(s.points, func(i, j int) bool { return s.points[i].Time < s.points[j].Time })
}

// Range returns a copy of all points with from <= time <= to.
func (s *OpenInterestSeries) Range(from, to int64) []models.OpenInterestPoint {
	lo := sort.Search(len(s.points), func(i int) bool { return s.points[i].Time >= from })
	hi := sort.Search(len(s.points), func(i int) bool { return s.points[i].Time > to })
	if lo >= hi {
		return nil
	}
	out := make([]models.OpenInterestPoint, hi-lo)
	copy(out, s.points[lo:hi])
	return out
}

func (s *OpenInterestSeries) Len() int { return len(s.points) }
