// Package coach turns the live telemetry and the lap events into spoken
// coaching cues.
package coach

import (
	"math"
	"strconv"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/events"
	"github.com/mpapenbr/racecoach/pkg/processing/lap"
	"github.com/mpapenbr/racecoach/pkg/processing/reference"
)

// ReferenceSource provides the reference lap data needed by the rules.
type ReferenceSource interface {
	Reference() *model.ReferenceLap
	ReferenceAt(d float64) (reference.Point, error)
	TrackLength() float64
}

// Coach is used by the ingestion path only and is not safe for concurrent use.
type Coach struct {
	cfg       Config
	log       *log.Logger
	phrases   *Phrases
	cooldowns *Cooldowns

	warned   map[int]bool // braking zones warned about in this lap
	corners  map[int]*cornerTrack
	feedback map[int]bool // corners with feedback in this lap
}

type Option func(c *Coach)

func WithConfig(cfg Config) Option {
	return func(c *Coach) {
		c.cfg = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coach) {
		c.log = l
	}
}

func WithPhrases(p *Phrases) Option {
	return func(c *Coach) {
		c.phrases = p
	}
}

func NewCoach(opts ...Option) *Coach {
	ret := &Coach{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("coach")
	}
	if ret.phrases == nil {
		ret.phrases = NewPhrases(1)
	}
	ret.cooldowns = NewCooldowns(ret.cfg.Cooldowns)
	ret.resetLap()
	return ret
}

// Cooldowns are shared with the event detectors.
func (c *Coach) Cooldowns() *Cooldowns { return c.cooldowns }

// StartLap drops all per lap state
func (c *Coach) StartLap() {
	c.cooldowns.Reset()
	c.resetLap()
}

func (c *Coach) resetLap() {
	c.warned = map[int]bool{}
	c.corners = map[int]*cornerTrack{}
	c.feedback = map[int]bool{}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) message(
	text, category string,
	prio model.Priority,
	anchor, validRange float64,
	forced bool,
) model.CoachingMessage {
	return model.CoachingMessage{
		Text:           text,
		Category:       category,
		Priority:       prio,
		AnchorDistance: anchor,
		ValidRange:     validRange,
		Forced:         forced,
	}
}

// Tick runs the per sample rules. Nothing is produced without a reference
// lap or close to the start line.
func (c *Coach) Tick(s *model.TelemetrySample, src ReferenceSource) []model.CoachingMessage {
	ref := src.Reference()
	if ref == nil || s.Distance < c.cfg.MinDistance {
		return nil
	}
	point, err := src.ReferenceAt(s.Distance)
	if err != nil {
		return nil
	}
	var ret []model.CoachingMessage
	add := func(m *model.CoachingMessage) {
		if m != nil {
			ret = append(ret, *m)
		}
	}
	add(c.checkBraking(s, ref.Corners, src.TrackLength()))
	add(c.checkGear(s, &point))
	add(c.checkThrottle(s, &point))
	add(c.checkSpeed(s, &point))
	c.trackCorners(s, ref.Corners)
	add(c.cornerFeedback(s, ref.Corners))
	return ret
}

// LapStarted returns the callout for the start of a lap
func (c *Coach) LapStarted(ev *lap.Event, d float64) model.CoachingMessage {
	var text string
	switch {
	case ev.OutLap:
		text = c.phrases.Say(keyFormationLap)
	case !ev.HasReference:
		text = c.phrases.Say(keyLapStartNoRef, "lap", strconv.Itoa(ev.LapNo))
	default:
		text = c.phrases.Say(keyLapStartWithRef,
			"lap", strconv.Itoa(ev.LapNo), "target", SpeakTime(ev.Target))
	}
	return c.message(text, "lap", model.PriorityHigh, d, c.cfg.DefaultValidRange, true)
}

// LapClosed returns the callouts for a completed lap. The lap time is always
// announced, the comparison with the reference only for valid laps.
func (c *Coach) LapClosed(ev *lap.Event, d float64) []model.CoachingMessage {
	if ev.Lap == nil || ev.Result == model.ResultAbandoned {
		return nil
	}
	lapTime := ev.Lap.LapTime
	timeText := SpeakTime(lapTime)
	say := func(key string, args ...string) model.CoachingMessage {
		return c.message(c.phrases.Say(key, args...), "lap",
			model.PriorityHigh, d, c.cfg.DefaultValidRange, true)
	}
	ret := []model.CoachingMessage{
		say(keyLapTime, "lap", strconv.Itoa(ev.LapNo), "time", timeText),
	}
	if ev.Result != model.ResultCompletedValid {
		return ret
	}
	switch {
	case ev.NewReference != nil && ev.PreviousBest <= 0:
		ret = append(ret, say(keyBaselineSet, "time", timeText))
	case ev.NewReference != nil:
		ret = append(ret, say(keyPurpleLap,
			"time", timeText, "delta", SpeakDelta(ev.PreviousBest-lapTime)))
	default:
		delta := lapTime - ev.ReferenceTime
		key := keyLapSlow
		switch {
		case delta < c.cfg.CloseLap:
			key = keyLapClose
		case delta < c.cfg.OkLap:
			key = keyLapOk
		}
		ret = append(ret, say(key, "time", timeText, "delta", SpeakDelta(delta)))
	}
	return ret
}

// Sector returns the callouts for a completed sector. liveDelta is the
// current delta to the reference lap, it is announced after the sector
// if it is large enough.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) Sector(
	ev *lap.Event,
	d, liveDelta float64,
	hasReference bool,
) []model.CoachingMessage {
	if ev.Time <= 0 {
		return nil
	}
	sector := strconv.Itoa(ev.Sector)
	var text string
	switch ev.Class {
	case lap.ClassBest:
		text = c.phrases.Say(keySectorPurple, "sector", sector, "time", SpeakSectorTime(ev.Time))
	case lap.ClassAhead:
		text = c.phrases.Say(keySectorGreen, "sector", sector, "time", SpeakSectorTime(ev.Time))
	case lap.ClassBehind:
		text = c.phrases.Say(keySectorYellow,
			"sector", sector, "delta", SpeakSignedDelta(ev.Time-ev.RefTime))
	default:
		text = c.phrases.Say(keySectorTime, "sector", sector, "time", SpeakSectorTime(ev.Time))
	}
	ret := []model.CoachingMessage{
		c.message(text, "sector", model.PriorityHigh, d, c.cfg.DefaultValidRange, true),
	}
	if hasReference && math.Abs(liveDelta) > c.cfg.DeltaCallout {
		key := keyDeltaMinus
		if liveDelta > 0 {
			key = keyDeltaPlus
		}
		ret = append(ret, c.message(
			c.phrases.Say(key, "delta", SpeakSignedDelta(liveDelta)),
			"delta", model.PriorityMedium, d, c.cfg.DefaultValidRange, false))
	}
	return ret
}

// Incident returns the callout for a detection of the event detectors.
func (c *Coach) Incident(det *events.Detection, d float64) model.CoachingMessage {
	var text string
	if det.Kind == events.KindPenaltyTime {
		text = c.phrases.Say(string(det.Kind), "seconds", strconv.Itoa(det.Seconds))
	} else {
		text = c.phrases.Say(string(det.Kind))
	}
	return c.message(text, string(det.Kind), det.Priority, d, c.cfg.DefaultValidRange, det.Forced)
}

// SessionStart returns the greeting spoken with the first sample.
func (c *Coach) SessionStart(d float64) model.CoachingMessage {
	return c.message(c.phrases.Say(keyIntro), "session",
		model.PriorityHigh, d, c.cfg.DefaultValidRange, true)
}

// SessionEnd returns the closing callout of the session.
func (c *Coach) SessionEnd(d float64) model.CoachingMessage {
	return c.message(c.phrases.Say(keySessionEnd), "session",
		model.PriorityHigh, d, c.cfg.DefaultValidRange, true)
}
