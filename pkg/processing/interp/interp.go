// Package interp provides distance keyed lookups on lap channels.
package interp

import (
	"sort"

	"github.com/mpapenbr/racecoach/pkg/model"
)

// Series is a distance sorted sequence of values of one channel.
// A Series is immutable after creation and safe for concurrent reads.
type Series struct {
	dist []float64
	vals []float64
}

// NewSeries creates a series from the given distances and values.
// The input is copied and stable sorted by distance, so ties keep the order
// of their first occurrence.
func NewSeries(dist, vals []float64) *Series {
	n := min(len(dist), len(vals))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] < dist[idx[b]]
	})
	ret := &Series{dist: make([]float64, n), vals: make([]float64, n)}
	for i, j := range idx {
		ret.dist[i] = dist[j]
		ret.vals[i] = vals[j]
	}
	return ret
}

// FromLap builds a series for one channel of the lap samples.
func FromLap(lap *model.Lap, f func(s *model.TelemetrySample) float64) *Series {
	if lap == nil {
		return &Series{}
	}
	dist, vals := lap.Channel(f)
	return NewSeries(dist, vals)
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dist)
}

// Range returns the first and the last distance of the series.
func (s *Series) Range() (lo, hi float64) {
	if s.Len() == 0 {
		return 0, 0
	}
	return s.dist[0], s.dist[len(s.dist)-1]
}

func (s *Series) Distance(i int) float64 { return s.dist[i] }
func (s *Series) Value(i int) float64    { return s.vals[i] }

// At returns the value at distance d.
// Outside of the series the first resp. last value is returned. An exact hit
// returns the value of the first sample at that distance, everything else is
// interpolated linearly between the bracketing samples.
// An empty series yields 0.
func (s *Series) At(d float64) float64 {
	n := s.Len()
	switch {
	case n == 0:
		return 0
	case d <= s.dist[0]:
		return s.vals[0]
	case d >= s.dist[n-1]:
		// last occurrence would be wrong for duplicates at the end
		return s.vals[s.first(s.dist[n-1])]
	}
	// first index with dist >= d
	i := sort.SearchFloat64s(s.dist, d)
	if s.dist[i] == d {
		return s.vals[i]
	}
	d0, d1 := s.dist[i-1], s.dist[i]
	v0, v1 := s.vals[i-1], s.vals[i]
	// i-1 may be the last of several samples at d0, interpolation starts there
	return v0 + (v1-v0)*(d-d0)/(d1-d0)
}

// Nearest returns the index of the sample closest to d, -1 for an empty series.
// On equal distance the earlier sample wins.
func (s *Series) Nearest(d float64) int {
	n := s.Len()
	if n == 0 {
		return -1
	}
	i := sort.SearchFloat64s(s.dist, d)
	switch {
	case i == 0:
		return 0
	case i == n:
		return s.first(s.dist[n-1])
	}
	if d-s.dist[i-1] <= s.dist[i]-d {
		return s.first(s.dist[i-1])
	}
	return i
}

func (s *Series) first(d float64) int {
	return sort.SearchFloat64s(s.dist, d)
}

// ValueAt is a convenience for one-off lookups.
func ValueAt(dist, vals []float64, d float64) float64 {
	return NewSeries(dist, vals).At(d)
}
