// Package lap detects lap and sector boundaries in the sample stream and
// decides which lap becomes the reference.
package lap

import (
	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/events"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
)

type EventKind int

const (
	EventLapClosed EventKind = iota + 1
	EventLapStarted
	EventSectorCompleted
	EventInvalidated
)

func (k EventKind) String() string {
	switch k {
	case EventLapClosed:
		return "lapClosed"
	case EventLapStarted:
		return "lapStarted"
	case EventSectorCompleted:
		return "sectorCompleted"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

const (
	restartDistance = 100.0
	staleLimit      = 20
)

type SectorClass string

const (
	ClassNone   SectorClass = ""
	ClassBest   SectorClass = "best"   // personal best
	ClassAhead  SectorClass = "ahead"  // not slower than the reference
	ClassBehind SectorClass = "behind" // slower than the reference
)

// Color maps the class to the sector color shown on displays.
func (c SectorClass) Color() model.SectorColor {
	switch c {
	case ClassBest:
		return model.SectorPurple
	case ClassAhead:
		return model.SectorGreen
	case ClassBehind:
		return model.SectorYellow
	}
	return model.SectorNone
}

// Event is produced by the Tracker. Only the fields belonging to the kind
// are set.
type Event struct {
	Kind  EventKind
	LapNo int

	// EventLapClosed
	Lap           *model.Lap
	Result        model.LapResult
	NewReference  *model.ReferenceLap // set if the lap was promoted
	PreviousBest  float64             // reference time before this lap, 0 if none
	ReferenceTime float64             // reference time after this lap

	// EventLapStarted
	OutLap       bool
	HasReference bool
	Target       float64 // reference lap time

	// EventSectorCompleted
	Sector  int // 1-based
	Time    float64
	Class   SectorClass
	RefTime float64
}

// Tracker is the lap lifecycle state machine.
// It is used by the ingestion path only and not safe for concurrent use.
type Tracker struct {
	segmenter *segment.Segmenter
	log       *log.Logger

	lapNo      int
	staleCount int
	samples    []model.TelemetrySample
	validity   events.ValidityDetector
	splits     [2]float64 // cumulative sector 1 and 2 times
	announced  [2]bool

	ref         *model.ReferenceLap
	bestSectors [3]float64
	refSectors  [3]float64
}

type Option func(t *Tracker)

func WithSegmenter(s *segment.Segmenter) Option {
	return func(t *Tracker) {
		t.segmenter = s
	}
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

func NewTracker(opts ...Option) *Tracker {
	ret := &Tracker{lapNo: -1}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.segmenter == nil {
		ret.segmenter = segment.NewSegmenter()
	}
	if ret.log == nil {
		ret.log = log.Default().Named("lap")
	}
	return ret
}

func (t *Tracker) LapNo() int                     { return t.lapNo }
func (t *Tracker) Invalid() bool                  { return t.validity.Invalid() }
func (t *Tracker) Reference() *model.ReferenceLap { return t.ref }
func (t *Tracker) HasReference() bool             { return t.ref != nil }
func (t *Tracker) BestSectors() [3]float64        { return t.bestSectors }
func (t *Tracker) ReferenceSectors() [3]float64   { return t.refSectors }

func (t *Tracker) referenceTime() float64 { return t.ref.LapTime() }

// timed is true for racing laps, the out lap has number 0
func (t *Tracker) timed() bool { return t.lapNo > 0 }

// Process handles one sample and returns the resulting events in order.
// The flag is false if the sample was dropped as stale.
func (t *Tracker) Process(s model.TelemetrySample) ([]Event, bool) {
	if t.stale(s) {
		t.staleCount++
		return nil, false
	}
	t.staleCount = 0
	var ret []Event
	if s.LapNo != t.lapNo {
		if t.lapNo >= 0 {
			ret = append(ret, t.closeLap(s)...)
		}
		t.startLap(s.LapNo)
		ret = append(ret, Event{
			Kind:         EventLapStarted,
			LapNo:        s.LapNo,
			OutLap:       s.LapNo == 0,
			HasReference: t.ref != nil,
			Target:       t.referenceTime(),
		})
	}
	t.samples = append(t.samples, s)

	// validity is sticky for the whole lap
	if t.validity.Update(s.LapInvalid) {
		ret = append(ret, Event{Kind: EventInvalidated, LapNo: t.lapNo})
		t.log.Debug("lap invalidated",
			log.Int("lap", t.lapNo), log.Float64("distance", s.Distance))
	}

	if t.timed() {
		ret = append(ret, t.checkSectors(s)...)
	}
	return ret, true
}

// stale is true for a sample carrying the number of an already closed lap.
// A lower lap number is taken as restart if the car is back at the start
// line after having moved away from it, or if it persists for
// staleLimit samples.
func (t *Tracker) stale(s model.TelemetrySample) bool {
	if t.lapNo < 0 || s.LapNo >= t.lapNo {
		return false
	}
	if s.Distance <= restartDistance && t.maxDistance()-s.Distance > restartDistance {
		return false
	}
	return t.staleCount+1 < staleLimit
}

func (t *Tracker) maxDistance() float64 {
	ret := 0.0
	for i := range t.samples {
		ret = max(ret, t.samples[i].Distance)
	}
	return ret
}

// Abandon closes the open lap without result, used when the session ends.
func (t *Tracker) Abandon() []Event {
	if !t.timed() {
		return nil
	}
	lap := t.buildLap(0)
	lap.Result = model.ResultAbandoned
	t.startLap(-1)
	return []Event{t.closedEvent(lap, nil, t.referenceTime())}
}

func (t *Tracker) startLap(lapNo int) {
	t.lapNo = lapNo
	t.samples = nil
	t.validity.Reset()
	t.splits = [2]float64{}
	t.announced = [2]bool{}
}

func (t *Tracker) checkSectors(s model.TelemetrySample) []Event {
	var ret []Event
	if !t.announced[0] && s.Sector >= 1 && s.Sector1Time > 0 {
		t.splits[0] = s.Sector1Time
		t.announced[0] = true
		if !t.validity.Invalid() {
			ret = append(ret, t.classify(1, s.Sector1Time))
		}
	}
	s1 := t.splits[0]
	if t.announced[0] && !t.announced[1] && s.Sector >= 2 && s.Sector2Time > s1 {
		t.splits[1] = s.Sector2Time
		t.announced[1] = true
		if !t.validity.Invalid() {
			ret = append(ret, t.classify(2, s.Sector2Time-s1))
		}
	}
	return ret
}

func (t *Tracker) classify(sector int, v float64) Event {
	i := sector - 1
	ret := Event{
		Kind:    EventSectorCompleted,
		LapNo:   t.lapNo,
		Sector:  sector,
		Time:    v,
		RefTime: t.refSectors[i],
	}
	switch {
	case t.bestSectors[i] == 0 || v < t.bestSectors[i]:
		ret.Class = ClassBest
		t.bestSectors[i] = v
	case t.refSectors[i] > 0 && v <= t.refSectors[i]:
		ret.Class = ClassAhead
	case t.refSectors[i] > 0:
		ret.Class = ClassBehind
	}
	return ret
}

func (t *Tracker) buildLap(lapTime float64) *model.Lap {
	ret := &model.Lap{
		LapNo:   t.lapNo,
		LapTime: lapTime,
		Valid:   !t.validity.Invalid(),
		Samples: t.samples,
	}
	ret.Sort()
	s1, s2 := t.splits[0], t.splits[1]
	if s1 > 0 {
		ret.Sectors[0] = s1
	}
	if s2 > s1 && s1 > 0 {
		ret.Sectors[1] = s2 - s1
	}
	if s2 > 0 && lapTime > s2 {
		ret.Sectors[2] = lapTime - s2
	}
	return ret
}

//nolint:funlen // by design
func (t *Tracker) closeLap(next model.TelemetrySample) []Event {
	if !t.timed() {
		return nil
	}
	prev := t.referenceTime()
	lapTime := next.LastLapTime
	lap := t.buildLap(lapTime)

	// a lap counter going backwards means the session was restarted
	if next.LapNo < t.lapNo || lap.Check() != nil || lapTime <= 0 {
		lap.Result = model.ResultAbandoned
		t.log.Info("lap abandoned",
			log.Int("lap", lap.LapNo), log.Int("samples", len(lap.Samples)))
		return []Event{t.closedEvent(lap, nil, prev)}
	}

	var ret []Event
	if lap.Sectors[2] > 0 && !t.validity.Invalid() {
		ret = append(ret, t.classify(3, lap.Sectors[2]))
	}

	if t.validity.Invalid() {
		lap.Result = model.ResultCompletedInvalid
		t.log.Info("lap completed (invalid)",
			log.Int("lap", lap.LapNo), log.Float64("lapTime", lapTime))
		return append(ret, t.closedEvent(lap, nil, prev))
	}

	lap.Result = model.ResultCompletedValid
	var promoted *model.ReferenceLap
	if t.ref == nil || lapTime < prev {
		promoted = &model.ReferenceLap{
			Lap:         lap,
			Corners:     t.segmenter.Segment(lap),
			Sectors:     lap.Sectors,
			TrackLength: lap.MaxDistance(),
		}
		t.ref = promoted
		for i, v := range lap.Sectors {
			if v > 0 {
				t.refSectors[i] = v
			}
		}
		t.log.Info("new reference lap",
			log.Int("lap", lap.LapNo),
			log.Float64("lapTime", lapTime),
			log.Float64("previous", prev),
			log.Int("corners", len(promoted.Corners)))
	} else {
		t.log.Info("lap completed",
			log.Int("lap", lap.LapNo),
			log.Float64("lapTime", lapTime),
			log.Float64("delta", lapTime-prev))
	}
	ret = append(ret, t.closedEvent(lap, promoted, prev))
	return ret
}

//nolint:whitespace // can't make both editor and linter happy
func (t *Tracker) closedEvent(
	lap *model.Lap,
	promoted *model.ReferenceLap,
	prev float64,
) Event {
	return Event{
		Kind:          EventLapClosed,
		LapNo:         lap.LapNo,
		Lap:           lap,
		Result:        lap.Result,
		NewReference:  promoted,
		PreviousBest:  prev,
		ReferenceTime: t.referenceTime(),
	}
}
