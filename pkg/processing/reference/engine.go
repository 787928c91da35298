// Package reference holds the reference lap of a session and compares the
// live lap against it.
package reference

import (
	"errors"
	"math"
	"slices"
	"sort"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/interp"
)

var ErrNoReference = errors.New("no reference lap")

type Config struct {
	Bins             int     `mapstructure:"bins"`
	MinDeltaDistance float64 `mapstructure:"minDeltaDistance"`
}

func DefaultConfig() Config {
	return Config{Bins: 320, MinDeltaDistance: 100}
}

// Point holds the reference values at a distance.
type Point struct {
	Time     float64
	Speed    float64
	Throttle float64
	Brake    float64
	Gear     int
}


// Engine is used only by the ingestion path and is not safe for concurrent use.
type Engine struct {
	cfg Config
	log *log.Logger

	ref      *model.ReferenceLap
	time     *interp.Series
	speed    *interp.Series
	throttle *interp.Series
	brake    *interp.Series
	gear     *interp.Series
	refBins  *BinProfile

	live      *BinProfile
	lapLength float64   // furthest distance of the previous laps
	liveDist  []float64 // only used while the track length is unknown
	liveTime  []float64
	liveMax   float64

	bestSegments []float64 // best ever time per bin segment, 0 if unknown
	bestSectors  [3]float64
	lapsRecorded int
}

type Option func(e *Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

func NewEngine(opts ...Option) *Engine {
	ret := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.cfg.Bins <= 0 {
		ret.cfg.Bins = DefaultConfig().Bins
	}
	if ret.log == nil {
		ret.log = log.Default().Named("reference")
	}
	ret.bestSegments = make([]float64, ret.cfg.Bins)
	ret.resetLive()
	return ret
}

// SetReference replaces the reference lap. The lookup series and the
// reference profile are rebuilt, the live profile starts over.
func (e *Engine) SetReference(ref *model.ReferenceLap) {
	e.ref = ref
	if ref == nil || ref.Lap == nil {
		e.ref = nil
		e.time, e.speed, e.throttle, e.brake, e.gear = nil, nil, nil, nil, nil
		e.refBins = nil
		e.resetLive()
		return
	}
	lap := ref.Lap
	e.time = interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.LapTime })
	e.speed = interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Speed })
	e.throttle = interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Throttle })
	e.brake = interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Brake })
	e.gear = interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return float64(s.Gear) })
	e.refBins = BuildProfile(lap, e.cfg.Bins, e.TrackLength())
	e.resetLive()
	e.log.Info("reference set",
		log.Int("lap", lap.LapNo),
		log.Float64("lapTime", lap.LapTime),
		log.Float64("length", e.TrackLength()))
}

func (e *Engine) Reference() *model.ReferenceLap { return e.ref }
func (e *Engine) HasReference() bool             { return e.ref != nil }

// TrackLength is taken from the reference lap, without reference the
// furthest distance of the live lap is used.
func (e *Engine) TrackLength() float64 {
	if e.ref != nil {
		if e.ref.TrackLength > 0 {
			return e.ref.TrackLength
		}
		return e.ref.Lap.MaxDistance()
	}
	return e.liveMax
}

// ReferenceAt returns the interpolated reference values at d.
// The gear is taken from the nearest sample.
func (e *Engine) ReferenceAt(d float64) (Point, error) {
	if e.ref == nil {
		return Point{}, ErrNoReference
	}
	ret := Point{
		Time:     e.time.At(d),
		Speed:    e.speed.At(d),
		Throttle: e.throttle.At(d),
		Brake:    e.brake.At(d),
	}
	if i := e.gear.Nearest(d); i >= 0 {
		ret.Gear = int(e.gear.Value(i))
	}
	return ret, nil
}

// LiveDelta returns the current lap time minus the reference time at the same
// distance. Without reference or close to the start line 0 is returned.
func (e *Engine) LiveDelta(d, t float64) float64 {
	if e.ref == nil || d < e.cfg.MinDeltaDistance {
		return 0
	}
	return t - e.time.At(d)
}

// StartLap resets the live profile.
func (e *Engine) StartLap() {
	e.resetLive()
}

func (e *Engine) resetLive() {
	e.lapLength = max(e.lapLength, e.liveMax)
	e.live = NewBinProfile(e.cfg.Bins, e.profileLength())
	e.liveDist = e.liveDist[:0]
	e.liveTime = e.liveTime[:0]
	e.liveMax = 0
}

// profileLength is the length the live profile is laid out on. Without
// reference the previous laps are used, 0 if no lap was driven yet.
func (e *Engine) profileLength() float64 {
	if e.ref != nil {
		return e.TrackLength()
	}
	return e.lapLength
}

// UpdateLive feeds the current position of the live lap.
func (e *Engine) UpdateLive(d, t float64, pos model.Vec2) {
	if d > e.liveMax {
		e.liveMax = d
	}
	if e.live.Length > 0 {
		e.live.Update(d, t, pos)
		return
	}
	if n := len(e.liveDist); n == 0 || d >= e.liveDist[n-1] {
		e.liveDist = append(e.liveDist, d)
		e.liveTime = append(e.liveTime, t)
	}
}

// ReferenceBins returns a copy of the reference bin times, nil without reference.
func (e *Engine) ReferenceBins() []float64 {
	if e.refBins == nil {
		return nil
	}
	return slices.Clone(e.refBins.Times)
}

// LiveBins returns the bin times of the live lap reached so far.
// As long as no lap length is known the bins are laid out on the furthest
// distance of the live lap.
func (e *Engine) LiveBins() []float64 {
	if e.live.Length > 0 {
		return slices.Clone(e.live.Times[:e.live.Reached()])
	}
	if len(e.liveDist) == 0 || e.liveMax <= 0 {
		return nil
	}
	n := e.cfg.Bins
	ret := make([]float64, n)
	for i := range n {
		ret[i] = e.liveTimeAt(float64(i) * e.liveMax / float64(n))
	}
	return ret
}

// liveTimeAt interpolates the time of the live lap at d. The recorded
// distances are ascending.
func (e *Engine) liveTimeAt(d float64) float64 {
	i := sort.SearchFloat64s(e.liveDist, d)
	switch {
	case i == 0:
		return e.liveTime[0]
	case i == len(e.liveDist):
		return e.liveTime[i-1]
	case e.liveDist[i] == d:
		return e.liveTime[i]
	}
	d0, d1 := e.liveDist[i-1], e.liveDist[i]
	t0, t1 := e.liveTime[i-1], e.liveTime[i]
	return t0 + (t1-t0)*(d-d0)/(d1-d0)
}

// BinDeltas returns live minus reference time for every bin reached so far.
func (e *Engine) BinDeltas() []float64 {
	if e.ref == nil {
		return nil
	}
	n := e.live.Reached()
	ret := make([]float64, n)
	for i := range n {
		ret[i] = e.live.Times[i] - e.refBins.Times[i]
	}
	return ret
}

// LapDeltas compares a closed lap with the reference bin by bin.
func (e *Engine) LapDeltas(lap *model.Lap) []float64 {
	if e.ref == nil || lap == nil {
		return nil
	}
	p := BuildProfile(lap, e.cfg.Bins, e.TrackLength())
	ret := make([]float64, p.Len())
	for i := range ret {
		ret[i] = p.Times[i] - e.refBins.Times[i]
	}
	return ret
}

// Outline returns the positions of the reference bins if the reference lap
// carries positions.
func (e *Engine) Outline() []model.Vec2 {
	if e.ref == nil || !slices.ContainsFunc(e.ref.Lap.Samples,
		func(s model.TelemetrySample) bool { return s.HasPosition }) {
		return nil
	}
	return slices.Clone(e.refBins.Positions)
}

// RecordLap adds a valid lap to the best ever segment and sector times.
func (e *Engine) RecordLap(lap *model.Lap) {
	if lap == nil || !lap.Valid || lap.Check() != nil {
		return
	}
	length := e.TrackLength()
	if length <= 0 {
		length = lap.MaxDistance()
	}
	segs := BuildProfile(lap, e.cfg.Bins, length).Segments(lap.Duration())
	for i, v := range segs {
		if v <= 0 {
			continue
		}
		if e.bestSegments[i] == 0 || v < e.bestSegments[i] {
			e.bestSegments[i] = v
		}
	}
	for i, v := range lap.Sectors {
		if v > 0 && (e.bestSectors[i] == 0 || v < e.bestSectors[i]) {
			e.bestSectors[i] = v
		}
	}
	e.lapsRecorded++
}

// Optimal returns the virtual optimal lap on sector and on bin resolution.
// A gain is never negative.
func (e *Engine) Optimal() model.OptimalLap {
	ret := model.OptimalLap{
		ReferenceTime: e.ref.LapTime(),
		BestSectors:   e.bestSectors,
	}
	if e.bestSectors[0] > 0 && e.bestSectors[1] > 0 && e.bestSectors[2] > 0 {
		ret.SectorOptimal = e.bestSectors[0] + e.bestSectors[1] + e.bestSectors[2]
		ret.SectorGain = gain(ret.ReferenceTime, ret.SectorOptimal)
	}
	if e.lapsRecorded > 0 && !slices.Contains(e.bestSegments, 0) {
		sum := 0.0
		for _, v := range e.bestSegments {
			sum += v
		}
		ret.BinOptimal = sum
		ret.BinGain = gain(ret.ReferenceTime, sum)
	}
	return ret
}

func gain(ref, optimal float64) float64 {
	if ref <= 0 {
		return 0
	}
	return math.Max(0, ref-optimal)
}
