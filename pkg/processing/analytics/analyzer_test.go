//nolint:funlen // readability
package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
	"github.com/mpapenbr/racecoach/testsupport/lapgen"
)

var refZone = lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3}

func reference(t *testing.T) *model.ReferenceLap {
	t.Helper()
	lap := lapgen.Lap(lapgen.WithZones(refZone))
	corners := segment.NewSegmenter().Segment(lap)
	if len(corners) != 1 {
		t.Fatalf("expected 1 corner, got %d", len(corners))
	}
	return &model.ReferenceLap{Lap: lap, Corners: corners, TrackLength: lap.MaxDistance()}
}

// lap that slows down more than the reference in turn 1
func slowLap(lapNo int) *model.Lap {
	z := refZone
	z.MinSpeed = 60
	return lapgen.Lap(lapgen.WithLapNo(lapNo), lapgen.WithZones(z))
}

func TestMeasureCorner(t *testing.T) {
	ref := reference(t)
	m := MeasureCorner(DefaultConfig(), ref.Lap, &ref.Corners[0])
	assert.Equal(t, 1, m.Turn)
	assert.InDelta(t, 80.0, m.ApexSpeed, 1e-9)
	assert.InDelta(t, 140.0, m.ApexDistance, 1e-9)
	assert.True(t, m.HasBrakeOnset)
	assert.InDelta(t, 100.0, m.BrakeOnset, 1e-9)
	assert.True(t, m.HasThrottleOnset)
	assert.InDelta(t, 190.0, m.ThrottleOnset, 1e-9)
	assert.Greater(t, m.Elapsed, 0.0)
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		m    model.CornerMetric
		want model.CornerCause
	}{
		{
			name: "no loss",
			m:    model.CornerMetric{TimeDelta: 0.04, BrakeOnsetDelta: 30},
			want: model.CauseClean,
		},
		{
			name: "late braking wins",
			m: model.CornerMetric{
				TimeDelta: 0.2, BrakeOnsetDelta: 11, ExitSpeedDelta: -10, ApexSpeedDelta: -10,
			},
			want: model.CauseBrakeEarlier,
		},
		{
			name: "exit before apex",
			m:    model.CornerMetric{TimeDelta: 0.2, ExitSpeedDelta: -6, ApexSpeedDelta: -10},
			want: model.CauseExitSpeedLow,
		},
		{
			name: "apex",
			m:    model.CornerMetric{TimeDelta: 0.2, ApexSpeedDelta: -6, EntrySpeedDelta: -6},
			want: model.CauseOverSlowedApex,
		},
		{
			name: "entry",
			m:    model.CornerMetric{TimeDelta: 0.2, EntrySpeedDelta: -6, ThrottleDelta: 20},
			want: model.CauseCarryEntrySpeed,
		},
		{
			name: "throttle",
			m:    model.CornerMetric{TimeDelta: 0.2, ThrottleDelta: 16},
			want: model.CauseThrottleLate,
		},
		{
			name: "loss without reason",
			m:    model.CornerMetric{TimeDelta: 0.2, ThrottleDelta: 15, ApexSpeedDelta: -5},
			want: model.CauseClean,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(cfg, &tt.m))
		})
	}
}

func TestAnalyzer_AddLap(t *testing.T) {
	a := NewAnalyzer()
	ref := reference(t)
	a.ResetCorners(ref)

	metrics, ok := a.AddLap(ref.Lap)
	assert.True(t, ok)
	if assert.Len(t, metrics, 1) {
		assert.InDelta(t, 0, metrics[0].TimeDelta, 1e-9)
		assert.Equal(t, model.CauseClean, metrics[0].Cause)
	}

	metrics, ok = a.AddLap(slowLap(2))
	assert.True(t, ok)
	if assert.Len(t, metrics, 1) {
		m := metrics[0]
		assert.Greater(t, m.TimeDelta, 0.05)
		assert.InDelta(t, -20, m.ApexSpeedDelta, 1e-9)
		assert.Equal(t, model.CauseOverSlowedApex, m.Cause)
	}

	_, ok = a.AddLap(slowLap(2))
	assert.False(t, ok, "same lap number")
	_, ok = a.AddLap(lapgen.Lap(lapgen.WithLapNo(3), lapgen.WithInvalid(0, 10)))
	assert.False(t, ok, "invalid lap")
	assert.Equal(t, 2, a.Laps())
}

func TestAnalyzer_ComputeIsIdempotent(t *testing.T) {
	a := NewAnalyzer()
	ref := reference(t)
	a.ResetCorners(ref)
	a.AddLap(ref.Lap)
	for i := 2; i <= 5; i++ {
		a.AddLap(slowLap(i))
	}
	first := a.Compute()
	a.AddLap(slowLap(5)) // already known
	second := a.Compute()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Compute() not idempotent (-first +second):\n%s", diff)
	}

	m := first.Mastery[1]
	assert.Equal(t, 5, m.Laps)
	assert.InDelta(t, clampScore(100-200*m.MeanDelta), m.PaceScore, 1e-9)
	assert.InDelta(t, clampScore(100-400*m.StdDelta), m.ConsistencyScore, 1e-9)
	assert.InDelta(t, 0.6*m.PaceScore+0.4*m.ConsistencyScore, m.Score, 1e-9)
	assert.Equal(t, model.CauseOverSlowedApex, m.DominantCause)
	assert.Equal(t, model.TrendDeclining, m.Trend)
}

func TestAnalyzer_ResetCorners(t *testing.T) {
	a := NewAnalyzer()
	ref := reference(t)
	a.ResetCorners(ref)
	a.AddLap(ref.Lap)
	a.AddLap(slowLap(2))
	assert.Len(t, a.Compute().Mastery, 1)

	a.ResetCorners(ref)
	res := a.Compute()
	assert.Empty(t, res.Mastery)
	assert.Empty(t, res.Consistency.CornerTimeStd)
	assert.Equal(t, 2, res.Consistency.Laps, "lap based statistics survive")
}

func TestAnalyzer_Report(t *testing.T) {
	a := NewAnalyzer()
	ref := reference(t)
	a.ResetCorners(ref)
	a.AddLap(ref.Lap)
	a.AddLap(slowLap(2))
	assert.False(t, a.ReportDue())
	a.AddLap(slowLap(3))
	assert.True(t, a.ReportDue())

	now := time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)
	rep := a.Report(model.OptimalLap{ReferenceTime: ref.LapTime()}, false, now)
	assert.False(t, a.ReportDue())
	assert.Equal(t, now, rep.GeneratedAt)
	assert.Equal(t, 3, rep.LapsAnalyzed)
	if assert.Len(t, rep.WorstCorners, 1) {
		assert.Equal(t, 1, rep.WorstCorners[0].Turn)
		assert.Equal(t, model.CauseOverSlowedApex, rep.WorstCorners[0].Cause)
	}
	assert.NotEmpty(t, rep.PracticeFocus)
	assert.LessOrEqual(t, len(rep.PracticeFocus), 3)
	assert.Equal(t, "Turn 1: carry more apex speed", rep.PracticeFocus[0])
	assert.NotEmpty(t, rep.BestSkillArea)
	assert.NotEmpty(t, rep.ProfileTags)
	assert.Less(t, rep.Improvement, 0.0, "laps got slower")
}

func TestAnalyzer_EmptyCompute(t *testing.T) {
	res := NewAnalyzer().Compute()
	assert.Empty(t, res.Mastery)
	assert.Zero(t, res.Consistency.Laps)
	assert.Equal(t, model.SkillScores{}, res.Skills)
	assert.Empty(t, res.Profile.Tags)
}
