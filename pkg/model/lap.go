package model

import (
	"errors"
	"slices"
)

type LapResult int

const (
	ResultOpen LapResult = iota
	ResultCompletedValid
	ResultCompletedInvalid
	ResultAbandoned
)

func (r LapResult) String() string {
	switch r {
	case ResultOpen:
		return "open"
	case ResultCompletedValid:
		return "valid"
	case ResultCompletedInvalid:
		return "invalid"
	case ResultAbandoned:
		return "abandoned"
	}
	return "unknown"
}

var ErrEmptyLap = errors.New("lap has no usable samples")

// Lap holds all samples of one lap attempt.
// Once closed the lap is shared read-only.
type Lap struct {
	LapNo   int               `json:"lapNo"`
	LapTime float64           `json:"lapTime"`
	Sectors [3]float64        `json:"sectors"`
	Valid   bool              `json:"valid"`
	Result  LapResult         `json:"result"`
	Samples []TelemetrySample `json:"samples"`
}

// Sort orders the samples by distance. Samples with equal distance keep
// their arrival order.
func (l *Lap) Sort() {
	slices.SortStableFunc(l.Samples, func(a, b TelemetrySample) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
}

func (l *Lap) MaxDistance() float64 {
	ret := 0.0
	for i := range l.Samples {
		if l.Samples[i].Distance > ret {
			ret = l.Samples[i].Distance
		}
	}
	return ret
}

// Duration returns the lap time if known, otherwise the largest sample time.
func (l *Lap) Duration() float64 {
	if l.LapTime > 0 {
		return l.LapTime
	}
	ret := 0.0
	for i := range l.Samples {
		if l.Samples[i].LapTime > ret {
			ret = l.Samples[i].LapTime
		}
	}
	return ret
}

// Check returns ErrEmptyLap if the lap cannot be used for analysis.
func (l *Lap) Check() error {
	if len(l.Samples) == 0 || l.Duration() <= 0 {
		return ErrEmptyLap
	}
	return nil
}

// Channel extracts the distance and the values of one channel.
// The lap is expected to be sorted.
func (l *Lap) Channel(f func(s *TelemetrySample) float64) (dist, vals []float64) {
	dist = make([]float64, len(l.Samples))
	vals = make([]float64, len(l.Samples))
	for i := range l.Samples {
		dist[i] = l.Samples[i].Distance
		vals[i] = f(&l.Samples[i])
	}
	return dist, vals
}

// ReferenceLap is the fastest valid lap of the session together with the
// data derived from it.
type ReferenceLap struct {
	Lap         *Lap       `json:"lap"`
	Corners     []Corner   `json:"corners"`
	Sectors     [3]float64 `json:"sectors"`
	TrackLength float64    `json:"trackLength"`
}

func (r *ReferenceLap) LapTime() float64 {
	if r == nil || r.Lap == nil {
		return 0
	}
	return r.Lap.LapTime
}
