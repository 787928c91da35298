//nolint:funlen // readability
package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/testsupport/lapgen"
)

func refLap(lap *model.Lap) *model.ReferenceLap {
	return &model.ReferenceLap{Lap: lap, Sectors: lap.Sectors, TrackLength: lap.MaxDistance()}
}

func TestEngine_LiveDelta(t *testing.T) {
	zones := lapgen.WithZones(lapgen.Zone{From: 200, To: 260, Brake: 0.7, MinSpeed: 90})
	ref := lapgen.Lap(zones)
	live := lapgen.Lap(zones, lapgen.WithLapNo(2), lapgen.WithTimeOffset(300, 0.5))

	e := NewEngine()
	assert.Zero(t, e.LiveDelta(500, 12), "no reference")

	e.SetReference(refLap(ref))
	for _, s := range live.Samples {
		got := e.LiveDelta(s.Distance, s.LapTime)
		switch {
		case s.Distance < 100:
			assert.Zero(t, got, "d=%v", s.Distance)
		case s.Distance < 300:
			assert.InDelta(t, 0, got, 1e-6, "d=%v", s.Distance)
		default:
			assert.InDelta(t, 0.5, got, 1e-6, "d=%v", s.Distance)
		}
	}
}

func TestEngine_BinDeltas(t *testing.T) {
	ref := lapgen.Lap()
	live := lapgen.Lap(lapgen.WithLapNo(2), lapgen.WithTimeOffset(300, 0.5))

	e := NewEngine()
	e.SetReference(refLap(ref))
	assert.Len(t, e.ReferenceBins(), 320)
	assert.Empty(t, e.BinDeltas())

	for _, s := range live.Samples {
		if s.Distance > 500 {
			break
		}
		e.UpdateLive(s.Distance, s.LapTime, s.Position)
	}
	deltas := e.BinDeltas()
	// bins up to distance 500 inclusive
	assert.Len(t, deltas, 161)
	for i, v := range deltas {
		pos := float64(i) * 1000 / 320
		switch {
		case pos < 290:
			assert.InDelta(t, 0, v, 1e-6, "bin %d", i)
		case pos >= 300:
			assert.InDelta(t, 0.5, v, 1e-6, "bin %d", i)
		}
	}
	assert.Len(t, e.LiveBins(), 161)

	e.StartLap()
	assert.Empty(t, e.BinDeltas())
}

func TestEngine_LiveBinsWithoutReference(t *testing.T) {
	live := lapgen.Lap(lapgen.WithLength(500))
	e := NewEngine(WithConfig(Config{Bins: 10, MinDeltaDistance: 100}))
	for _, s := range live.Samples {
		e.UpdateLive(s.Distance, s.LapTime, s.Position)
	}
	assert.InDelta(t, 500.0, e.TrackLength(), 1e-9)
	bins := e.LiveBins()
	assert.Len(t, bins, 10)
	// 180 km/h = 50 units per second
	for i, v := range bins {
		assert.InDelta(t, float64(i)*50/50, v, 1e-6)
	}
	assert.Nil(t, e.BinDeltas())
}

func TestEngine_LiveBinsUsePreviousLapLength(t *testing.T) {
	first := lapgen.Lap(lapgen.WithLength(500))
	second := lapgen.Lap(lapgen.WithLength(500), lapgen.WithLapNo(2))
	e := NewEngine(WithConfig(Config{Bins: 10, MinDeltaDistance: 100}))
	for _, s := range first.Samples {
		e.UpdateLive(s.Distance, s.LapTime, s.Position)
	}
	e.StartLap()
	assert.Nil(t, e.LiveBins())

	for _, s := range second.Samples {
		if s.Distance > 250 {
			break
		}
		e.UpdateLive(s.Distance, s.LapTime, s.Position)
	}
	// laid out on the first lap, not on the 250 reached so far
	got := e.LiveBins()
	if assert.Len(t, got, 6) {
		for i, v := range got {
			assert.InDelta(t, float64(i), v, 1e-6)
		}
	}
	assert.Nil(t, e.BinDeltas())
}

func TestEngine_BackfillSkippedBins(t *testing.T) {
	e := NewEngine(WithConfig(Config{Bins: 10, MinDeltaDistance: 100}))
	e.SetReference(refLap(lapgen.Lap()))
	e.UpdateLive(0, 0, model.Vec2{})
	e.UpdateLive(450, 9, model.Vec2{})
	got := e.LiveBins()
	if assert.Len(t, got, 5) {
		for i, v := range got {
			assert.InDelta(t, float64(i)*2, v, 1e-9)
		}
	}
	// going backwards does not remove bins
	e.UpdateLive(300, 6, model.Vec2{})
	assert.Len(t, e.LiveBins(), 5)
}

func TestEngine_ReferenceAt(t *testing.T) {
	e := NewEngine()
	_, err := e.ReferenceAt(10)
	assert.ErrorIs(t, err, ErrNoReference)

	e.SetReference(refLap(lapgen.Lap(lapgen.WithZones(
		lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3}))))
	p, err := e.ReferenceAt(140)
	assert.NoError(t, err)
	assert.InDelta(t, 80.0, p.Speed, 1e-9)
	assert.InDelta(t, 0.6, p.Brake, 1e-9)
	assert.Equal(t, 3, p.Gear)
	p, _ = e.ReferenceAt(500)
	assert.Equal(t, 6, p.Gear)
	assert.InDelta(t, 1.0, p.Throttle, 1e-9)
}

func TestEngine_Optimal(t *testing.T) {
	a := lapgen.Lap(lapgen.WithZones(lapgen.Zone{From: 100, To: 400, MinSpeed: 100}))
	b := lapgen.Lap(lapgen.WithLapNo(2),
		lapgen.WithZones(lapgen.Zone{From: 600, To: 900, MinSpeed: 100}))
	a.Sectors = [3]float64{5, 6, 5}
	b.Sectors = [3]float64{4.5, 6.5, 5.5}

	e := NewEngine()
	e.SetReference(refLap(a))
	e.RecordLap(a)
	e.RecordLap(b)

	got := e.Optimal()
	assert.InDelta(t, a.LapTime, got.ReferenceTime, 1e-9)
	assert.Equal(t, [3]float64{4.5, 6, 5}, got.BestSectors)
	assert.InDelta(t, 15.5, got.SectorOptimal, 1e-9)
	assert.InDelta(t, a.LapTime-15.5, got.SectorGain, 1e-9)

	assert.Less(t, got.BinOptimal, a.LapTime-1)
	assert.Greater(t, got.BinOptimal, 19.5)
	assert.InDelta(t, a.LapTime-got.BinOptimal, got.BinGain, 1e-9)
}

func TestEngine_RecordLapIgnoresInvalid(t *testing.T) {
	e := NewEngine()
	lap := lapgen.Lap(lapgen.WithInvalid(100, 200))
	e.RecordLap(lap)
	got := e.Optimal()
	assert.Zero(t, got.BinOptimal)
	assert.Zero(t, got.SectorOptimal)
}
