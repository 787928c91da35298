//nolint:funlen // readability
package coach

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/events"
	"github.com/mpapenbr/racecoach/pkg/processing/lap"
	"github.com/mpapenbr/racecoach/pkg/processing/reference"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
	"github.com/mpapenbr/racecoach/testsupport/lapgen"
)

var (
	zone1 = lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3}
	zone2 = lapgen.Zone{From: 600, To: 680, Brake: 0.6, MinSpeed: 80, Gear: 3}
)

// echoPhrases answers every key with the key itself
func echoPhrases() *Phrases {
	p := NewPhrases(1)
	p.bank = map[string][]string{}
	for k := range defaultBank {
		p.bank[k] = []string{k}
	}
	return p
}

func newEngine(t *testing.T, zones ...lapgen.Zone) *reference.Engine {
	t.Helper()
	l := lapgen.Lap(lapgen.WithZones(zones...))
	corners := segment.NewSegmenter().Segment(l)
	if len(corners) != len(zones) {
		t.Fatalf("expected %d corners, got %d", len(zones), len(corners))
	}
	e := reference.NewEngine()
	e.SetReference(&model.ReferenceLap{
		Lap:         l,
		Corners:     corners,
		Sectors:     l.Sectors,
		TrackLength: l.MaxDistance(),
	})
	return e
}

type cue struct {
	Text     string
	Category string
	Priority model.Priority
}

func cues(msgs []model.CoachingMessage) []cue {
	var ret []cue
	for _, m := range msgs {
		ret = append(ret, cue{Text: m.Text, Category: m.Category, Priority: m.Priority})
	}
	return ret
}

func TestTickRules(t *testing.T) {
	base := model.TelemetrySample{LapTime: 20, Speed: 180, Throttle: 1, Gear: 6}
	with := func(f func(s *model.TelemetrySample)) model.TelemetrySample {
		s := base
		f(&s)
		return s
	}
	tests := []struct {
		name   string
		sample model.TelemetrySample
		want   []cue
	}{
		{
			name:   "brake warning ahead of zone",
			sample: with(func(s *model.TelemetrySample) { s.Distance = 500 }),
			want:   []cue{{keyBrakeWarning, CategoryBrake, model.PriorityHigh}},
		},
		{
			name:   "brake now with gear",
			sample: with(func(s *model.TelemetrySample) { s.Distance = 575 }),
			want:   []cue{{keyBrakeWithGear, CategoryBrake, model.PriorityCritical}},
		},
		{
			name: "brake now without gear",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 575
				s.Gear = 4
			}),
			want: []cue{{keyBrakeNow, CategoryBrake, model.PriorityCritical}},
		},
		{
			name: "no brake cue while braking",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 575
				s.Brake = 0.5
			}),
			want: nil,
		},
		{
			name: "downshift",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 140
				s.Speed = 80
				s.Throttle = 0
				s.Brake = 0.6
			}),
			want: []cue{{keyDownshift, CategoryGear, model.PriorityHigh}},
		},
		{
			name: "get on power",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 400
				s.Throttle = 0.1
			}),
			want: []cue{{keyGetOnPower, CategoryThrottle, model.PriorityMedium}},
		},
		{
			name: "carry more speed",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 400
				s.Speed = 150
			}),
			want: []cue{{keyCarryMoreSpeed, CategorySpeed, model.PriorityLow}},
		},
		{
			name: "good speed",
			sample: with(func(s *model.TelemetrySample) {
				s.Distance = 400
				s.Speed = 195
			}),
			want: []cue{{keyGoodSpeed, CategoryPositive, model.PriorityLow}},
		},
		{
			name:   "nothing close to the line",
			sample: with(func(s *model.TelemetrySample) { s.Distance = 20 }),
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, zone1, zone2)
			c := NewCoach(WithPhrases(echoPhrases()))
			got := c.Tick(&tt.sample, e)
			if diff := cmp.Diff(tt.want, cues(got)); diff != "" {
				t.Errorf("Tick() mismatch (-want +got):\n%s", diff)
			}
			for _, m := range got {
				assert.Equal(t, tt.sample.Distance, m.AnchorDistance)
				assert.Greater(t, m.ValidRange, 0.0)
			}
		})
	}
}

func TestTickWithoutReference(t *testing.T) {
	c := NewCoach()
	s := model.TelemetrySample{Distance: 500, Speed: 180, Throttle: 1, Gear: 6}
	assert.Nil(t, c.Tick(&s, reference.NewEngine()))
}

func TestBrakeWarningOncePerZone(t *testing.T) {
	e := newEngine(t, zone1, zone2)
	c := NewCoach(WithPhrases(echoPhrases()))
	s := model.TelemetrySample{Distance: 500, LapTime: 20, Speed: 180, Throttle: 1, Gear: 6}
	assert.Len(t, c.Tick(&s, e), 1)

	// brake cooldown passed, zone already warned
	c.cooldowns.Reset()
	s.Distance = 510
	assert.Empty(t, c.Tick(&s, e))

	c.StartLap()
	assert.Len(t, c.Tick(&s, e), 1)
}

func TestCornerFeedback(t *testing.T) {
	tests := []struct {
		name string
		live lapgen.Zone
		want string
	}{
		{
			name: "same as reference",
			live: zone1,
			want: keyCornerGood,
		},
		{
			name: "braked too early",
			live: lapgen.Zone{From: 80, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3},
			want: keyCornerBrakeLater,
		},
		{
			name: "braked later",
			live: lapgen.Zone{From: 115, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3},
			want: keyCornerGoodBrake,
		},
		{
			name: "too slow in the apex",
			live: lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 60, Gear: 3},
			want: keyCornerCarrySpeed,
		},
		{
			name: "faster in the apex",
			live: lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 90, Gear: 3},
			want: keyCornerGoodSpeed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, zone1)
			c := NewCoach(WithPhrases(echoPhrases()))
			live := lapgen.Lap(lapgen.WithLapNo(2), lapgen.WithZones(tt.live))
			var got []model.CoachingMessage
			for i := range live.Samples {
				for _, m := range c.Tick(&live.Samples[i], e) {
					if m.Category == CategoryCorner {
						got = append(got, m)
					}
				}
			}
			assert.Len(t, got, 1)
			if len(got) == 1 {
				assert.Equal(t, tt.want, got[0].Text)
				assert.Equal(t, model.PriorityMedium, got[0].Priority)
				assert.InDelta(t, 240.0, got[0].AnchorDistance, 1e-9)
			}
		})
	}
}

func TestJudgeCornerThrottle(t *testing.T) {
	c := NewCoach()
	zone := &model.Corner{
		Index: 1, ApexSpeed: 80, ThrottleOnset: 190, HasThrottleOnset: true,
	}
	late := &cornerTrack{minSpeed: 80, hasMin: true, throttle: 220, hasThrottle: true}
	early := &cornerTrack{minSpeed: 80, hasMin: true, throttle: 170, hasThrottle: true}
	assert.Equal(t, keyCornerEarlierGas, c.judgeCorner(late, zone))
	assert.Equal(t, keyCornerGoodExit, c.judgeCorner(early, zone))
	assert.Equal(t, keyCornerGood, c.judgeCorner(&cornerTrack{}, zone))
}

func TestLapStarted(t *testing.T) {
	tests := []struct {
		name string
		ev   lap.Event
		want string
	}{
		{"out lap", lap.Event{LapNo: 0, OutLap: true}, keyFormationLap},
		{"no reference", lap.Event{LapNo: 1}, keyLapStartNoRef},
		{"with reference", lap.Event{LapNo: 2, HasReference: true, Target: 90}, keyLapStartWithRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoach(WithPhrases(echoPhrases()))
			got := c.LapStarted(&tt.ev, 0)
			assert.Equal(t, tt.want, got.Text)
			assert.True(t, got.Forced)
			assert.Equal(t, model.PriorityHigh, got.Priority)
		})
	}
}

func TestSessionStart(t *testing.T) {
	c := NewCoach(WithPhrases(echoPhrases()))
	got := c.SessionStart(12)
	assert.Equal(t, keyIntro, got.Text)
	assert.Equal(t, "session", got.Category)
	assert.True(t, got.Forced)
	assert.Equal(t, 12.0, got.AnchorDistance)
}

func TestLapClosed(t *testing.T) {
	ref := &model.ReferenceLap{}
	tests := []struct {
		name string
		ev   lap.Event
		want []string
	}{
		{
			name: "baseline",
			ev: lap.Event{
				LapNo: 1, Result: model.ResultCompletedValid, NewReference: ref,
				Lap: &model.Lap{LapTime: 90},
			},
			want: []string{keyLapTime, keyBaselineSet},
		},
		{
			name: "new fastest lap",
			ev: lap.Event{
				LapNo: 2, Result: model.ResultCompletedValid, NewReference: ref,
				PreviousBest: 90, Lap: &model.Lap{LapTime: 89.5},
			},
			want: []string{keyLapTime, keyPurpleLap},
		},
		{
			name: "close",
			ev: lap.Event{
				LapNo: 3, Result: model.ResultCompletedValid, ReferenceTime: 89.5,
				Lap: &model.Lap{LapTime: 89.8},
			},
			want: []string{keyLapTime, keyLapClose},
		},
		{
			name: "ok",
			ev: lap.Event{
				LapNo: 3, Result: model.ResultCompletedValid, ReferenceTime: 89.5,
				Lap: &model.Lap{LapTime: 91},
			},
			want: []string{keyLapTime, keyLapOk},
		},
		{
			name: "slow",
			ev: lap.Event{
				LapNo: 3, Result: model.ResultCompletedValid, ReferenceTime: 89.5,
				Lap: &model.Lap{LapTime: 95},
			},
			want: []string{keyLapTime, keyLapSlow},
		},
		{
			name: "invalid lap only announces the time",
			ev: lap.Event{
				LapNo: 3, Result: model.ResultCompletedInvalid,
				Lap: &model.Lap{LapTime: 85},
			},
			want: []string{keyLapTime},
		},
		{
			name: "abandoned",
			ev: lap.Event{
				LapNo: 3, Result: model.ResultAbandoned, Lap: &model.Lap{},
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoach(WithPhrases(echoPhrases()))
			var got []string
			for _, m := range c.LapClosed(&tt.ev, 0) {
				got = append(got, m.Text)
				assert.True(t, m.Forced)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LapClosed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLapClosedText(t *testing.T) {
	c := NewCoach()
	got := c.LapClosed(&lap.Event{
		LapNo: 2, Result: model.ResultCompletedValid, NewReference: &model.ReferenceLap{},
		PreviousBest: 90, Lap: &model.Lap{LapTime: 89.5},
	}, 0)
	assert.Len(t, got, 2)
	assert.Equal(t, "Lap 2, 1 minute 29 point 500", got[0].Text)
	assert.Contains(t, got[1].Text, "1 minute 29 point 500")
	assert.Contains(t, got[1].Text, "0 point 500")
}

func TestSector(t *testing.T) {
	tests := []struct {
		name   string
		ev     lap.Event
		delta  float64
		hasRef bool
		want   []cue
	}{
		{
			name:   "purple",
			ev:     lap.Event{Sector: 1, Time: 28.4, Class: lap.ClassBest},
			hasRef: true,
			want:   []cue{{keySectorPurple, "sector", model.PriorityHigh}},
		},
		{
			name:   "green with delta",
			ev:     lap.Event{Sector: 2, Time: 28.4, Class: lap.ClassAhead, RefTime: 28.6},
			delta:  -0.3,
			hasRef: true,
			want: []cue{
				{keySectorGreen, "sector", model.PriorityHigh},
				{keyDeltaMinus, "delta", model.PriorityMedium},
			},
		},
		{
			name:   "yellow with delta",
			ev:     lap.Event{Sector: 2, Time: 29, Class: lap.ClassBehind, RefTime: 28.6},
			delta:  0.4,
			hasRef: true,
			want: []cue{
				{keySectorYellow, "sector", model.PriorityHigh},
				{keyDeltaPlus, "delta", model.PriorityMedium},
			},
		},
		{
			name:   "small delta is not announced",
			ev:     lap.Event{Sector: 2, Time: 29, Class: lap.ClassBehind, RefTime: 28.6},
			delta:  0.05,
			hasRef: true,
			want:   []cue{{keySectorYellow, "sector", model.PriorityHigh}},
		},
		{
			name:  "no reference",
			ev:    lap.Event{Sector: 1, Time: 29},
			delta: 0.4,
			want:  []cue{{keySectorTime, "sector", model.PriorityHigh}},
		},
		{
			name: "no time",
			ev:   lap.Event{Sector: 1},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoach(WithPhrases(echoPhrases()))
			got := c.Sector(&tt.ev, 300, tt.delta, tt.hasRef)
			if diff := cmp.Diff(tt.want, cues(got)); diff != "" {
				t.Errorf("Sector() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSectorYellowText(t *testing.T) {
	c := NewCoach()
	got := c.Sector(
		&lap.Event{Sector: 2, Time: 28.946, Class: lap.ClassBehind, RefTime: 28.6},
		300, 0, true)
	assert.Len(t, got, 1)
	assert.Equal(t, "Sector 2, plus point 3 4 6", got[0].Text)
}

func TestIncident(t *testing.T) {
	c := NewCoach()
	got := c.Incident(&events.Detection{
		Kind: events.KindPenaltyTime, Priority: model.PriorityHigh, Forced: true, Seconds: 5,
	}, 420)
	assert.Equal(t, "5 second penalty.", got.Text)
	assert.True(t, got.Forced)
	assert.Equal(t, 420.0, got.AnchorDistance)

	got = c.Incident(&events.Detection{Kind: events.KindDamageRearWing}, 420)
	assert.Equal(t, "Rear wing damage.", got.Text)
	assert.False(t, got.Forced)
}
