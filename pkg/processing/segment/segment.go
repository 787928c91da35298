// Package segment derives the corners of a track from the shape of a single
// reference lap.
package segment

import (
	"cmp"
	"math"
	"slices"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

type Config struct {
	BrakeWindow       int     `mapstructure:"brakeWindow"`
	BrakeOpen         float64 `mapstructure:"brakeOpen"`
	BrakeClose        float64 `mapstructure:"brakeClose"`
	MinBrakeSamples   int     `mapstructure:"minBrakeSamples"` // zone needs more samples than this
	SteerWindow       int     `mapstructure:"steerWindow"`
	SteerThreshold    float64 `mapstructure:"steerThreshold"`
	MinSteerSamples   int     `mapstructure:"minSteerSamples"`
	MinSteerSpan      float64 `mapstructure:"minSteerSpan"`
	MergeMargin       float64 `mapstructure:"mergeMargin"`
	MergeApex         float64 `mapstructure:"mergeApex"`
	ThrottleOn        float64 `mapstructure:"throttleOn"`
	ThrottleLookahead int     `mapstructure:"throttleLookahead"` // samples after apex
	BrakeExitBuffer   float64 `mapstructure:"brakeExitBuffer"`
	SteerExitBuffer   float64 `mapstructure:"steerExitBuffer"`
	MinCorners        int     `mapstructure:"minCorners"`
	FallbackOpen      float64 `mapstructure:"fallbackOpen"`
	FallbackClose     float64 `mapstructure:"fallbackClose"`
	FallbackSamples   int     `mapstructure:"fallbackSamples"`
}

func DefaultConfig() Config {
	return Config{
		BrakeWindow:       5,
		BrakeOpen:         0.2,
		BrakeClose:        0.1,
		MinBrakeSamples:   3,
		SteerWindow:       7,
		SteerThreshold:    0.12,
		MinSteerSamples:   6,
		MinSteerSpan:      20,
		MergeMargin:       45,
		MergeApex:         80,
		ThrottleOn:        0.5,
		ThrottleLookahead: 120,
		BrakeExitBuffer:   50,
		SteerExitBuffer:   45,
		MinCorners:        3,
		FallbackOpen:      0.25,
		FallbackClose:     0.1,
		FallbackSamples:   1,
	}
}

type Segmenter struct {
	cfg Config
	log *log.Logger
}

type Option func(s *Segmenter)

func WithConfig(cfg Config) Option {
	return func(s *Segmenter) {
		s.cfg = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Segmenter) {
		s.log = l
	}
}

func NewSegmenter(opts ...Option) *Segmenter {
	ret := &Segmenter{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("segment")
	}
	return ret
}

// detector parameters for one pass over a channel
type pass struct {
	window     int
	open       float64
	close      float64
	minSamples int
}

// Segment returns the corners of the lap ordered by start distance and
// numbered from 1. The lap itself is not modified.
func (s *Segmenter) Segment(lap *model.Lap) []model.Corner {
	if lap == nil || len(lap.Samples) == 0 {
		return nil
	}
	samples := sortedSamples(lap.Samples)

	primary := pass{
		window:     s.cfg.BrakeWindow,
		open:       s.cfg.BrakeOpen,
		close:      s.cfg.BrakeClose,
		minSamples: s.cfg.MinBrakeSamples,
	}
	steering := s.steeringCorners(samples)
	ret := s.merge(s.brakingZones(samples, primary), steering)

	if len(ret) < s.cfg.MinCorners {
		fallback := pass{
			window:     1,
			open:       s.cfg.FallbackOpen,
			close:      s.cfg.FallbackClose,
			minSamples: s.cfg.FallbackSamples,
		}
		alt := s.merge(s.brakingZones(samples, fallback), steering)
		if len(alt) > len(ret) {
			s.log.Debug("using fallback segmentation",
				log.Int("primary", len(ret)), log.Int("fallback", len(alt)))
			ret = alt
		}
	}

	slices.SortStableFunc(ret, func(a, b model.Corner) int {
		return cmp.Compare(a.Start, b.Start)
	})
	for i := range ret {
		ret[i].Index = i + 1
	}
	s.log.Info("track segmented",
		log.Int("lap", lap.LapNo),
		log.Float64("length", samples[len(samples)-1].Distance),
		log.Int("corners", len(ret)),
		log.Int("steering", len(steering)))
	return ret
}

//nolint:gocognit // by design
func (s *Segmenter) brakingZones(samples []model.TelemetrySample, p pass) []model.Corner {
	raw := make([]float64, len(samples))
	for i := range samples {
		raw[i] = samples[i].Brake
	}
	smooth := movingAverage(raw, p.window)

	ret := []model.Corner{}
	finalize := func(start, end int) {
		if end-start <= p.minSamples {
			return
		}
		// the trailing average lags behind the pedal, trim to raw activity
		lo := max(0, start-p.window+1)
		first, last := -1, -1
		for i := lo; i < end; i++ {
			if raw[i] > p.close {
				if first == -1 {
					first = i
				}
				last = i
			}
		}
		if first == -1 {
			first, last = start, end-1
		}
		if samples[last].Distance <= samples[first].Distance {
			return
		}
		c := s.measure(samples, first, last)
		c.Source = model.SourceBraking
		c.BrakeOnset = samples[first].Distance
		c.HasBrakeOnset = true
		c.Exit = c.End + s.cfg.BrakeExitBuffer
		ret = append(ret, c)
	}

	inZone := false
	start := 0
	for i := range smooth {
		switch {
		case !inZone && smooth[i] > p.open:
			inZone = true
			start = i
		case inZone && smooth[i] < p.close:
			inZone = false
			finalize(start, i)
		}
	}
	if inZone {
		finalize(start, len(samples))
	}
	return ret
}

func (s *Segmenter) steeringCorners(samples []model.TelemetrySample) []model.Corner {
	if !slices.ContainsFunc(samples, func(x model.TelemetrySample) bool { return x.HasSteer }) {
		return nil
	}
	raw := make([]float64, len(samples))
	for i := range samples {
		raw[i] = math.Abs(samples[i].Steer)
	}
	smooth := movingAverage(raw, s.cfg.SteerWindow)

	ret := []model.Corner{}
	finalize := func(start, end int) {
		if end-start < s.cfg.MinSteerSamples {
			return
		}
		last := end - 1
		if samples[last].Distance-samples[start].Distance < s.cfg.MinSteerSpan {
			return
		}
		c := s.measure(samples, start, last)
		c.Source = model.SourceSteering
		c.Exit = c.End + s.cfg.SteerExitBuffer
		for i := start; i <= last; i++ {
			if samples[i].Brake > s.cfg.BrakeOpen {
				c.BrakeOnset = samples[i].Distance
				c.HasBrakeOnset = true
				break
			}
		}
		ret = append(ret, c)
	}

	inCorner := false
	start := 0
	for i := range smooth {
		active := smooth[i] > s.cfg.SteerThreshold
		switch {
		case active && !inCorner:
			inCorner = true
			start = i
		case !active && inCorner:
			inCorner = false
			finalize(start, i)
		}
	}
	if inCorner {
		finalize(start, len(samples))
	}
	return ret
}

// measure fills the shape values of the samples first..last (inclusive)
func (s *Segmenter) measure(samples []model.TelemetrySample, first, last int) model.Corner {
	apex := first
	minGear := 0
	for i := first; i <= last; i++ {
		if samples[i].Speed < samples[apex].Speed {
			apex = i
		}
		if g := samples[i].Gear; g > 0 && (minGear == 0 || g < minGear) {
			minGear = g
		}
	}
	ret := model.Corner{
		Start:      samples[first].Distance,
		End:        samples[last].Distance,
		Apex:       samples[apex].Distance,
		EntrySpeed: samples[first].Speed,
		ApexSpeed:  samples[apex].Speed,
		ExitSpeed:  samples[last].Speed,
		MinGear:    minGear,
	}
	limit := min(apex+s.cfg.ThrottleLookahead, len(samples))
	for i := apex; i < limit; i++ {
		if samples[i].Throttle > s.cfg.ThrottleOn {
			ret.ThrottleOnset = samples[i].Distance
			ret.HasThrottleOnset = true
			break
		}
	}
	return ret
}

// merge adds steering corners to the braking zones. A steering corner close
// to a braking zone widens that zone, the braking values are kept.
func (s *Segmenter) merge(zones, steering []model.Corner) []model.Corner {
	ret := slices.Clone(zones)
	braking := len(ret)
	for _, sc := range steering {
		merged := false
		for i := range braking {
			z := &ret[i]
			overlap := sc.Start <= z.End+s.cfg.MergeMargin &&
				sc.End >= z.Start-s.cfg.MergeMargin
			sameApex := math.Abs(sc.Apex-z.Apex) < s.cfg.MergeApex
			if overlap || sameApex {
				z.Start = math.Min(z.Start, sc.Start)
				if sc.End > z.End {
					z.End = sc.End
					z.Exit = z.End + s.cfg.BrakeExitBuffer
				}
				merged = true
				break
			}
		}
		if !merged {
			ret = append(ret, sc)
		}
	}
	return ret
}

// movingAverage is a trailing mean over at most window values
func movingAverage(vals []float64, window int) []float64 {
	window = max(window, 1)
	ret := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		ret[i] = sum / float64(min(i+1, window))
	}
	return ret
}

func sortedSamples(samples []model.TelemetrySample) []model.TelemetrySample {
	byDist := func(a, b model.TelemetrySample) int { return cmp.Compare(a.Distance, b.Distance) }
	if slices.IsSortedFunc(samples, byDist) {
		return samples
	}
	ret := slices.Clone(samples)
	slices.SortStableFunc(ret, byDist)
	return ret
}
