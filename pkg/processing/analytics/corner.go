package analytics

import (
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/interp"
)

// MeasureCorner measures how the lap drove the corner. The window reaches
// from CornerLead before the corner start up to the exit anchor.
// The lap is expected to be sorted by distance. Deltas are not set.
func MeasureCorner(cfg Config, lap *model.Lap, c *model.Corner) model.CornerMetric {
	ret := model.CornerMetric{Turn: c.Index, LapNo: lap.LapNo}
	if len(lap.Samples) == 0 {
		return ret
	}
	from := c.Start - cfg.CornerLead
	to := c.Exit
	times := interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.LapTime })
	speed := interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Speed })

	ret.Elapsed = times.At(to) - times.At(from)
	ret.EntrySpeed = speed.At(c.Start)
	ret.ExitSpeed = speed.At(c.End)
	ret.ApexSpeed = speed.At(c.Apex)
	ret.ApexDistance = c.Apex

	apex := -1
	for i := range lap.Samples {
		s := &lap.Samples[i]
		if s.Distance < from || s.Distance > to {
			continue
		}
		if !ret.HasBrakeOnset && s.Distance <= c.End && s.Brake > cfg.BrakeOn {
			ret.BrakeOnset = s.Distance
			ret.HasBrakeOnset = true
		}
		if s.Distance >= c.Start && s.Distance <= c.End &&
			(apex == -1 || s.Speed < lap.Samples[apex].Speed) {
			apex = i
		}
	}
	if apex == -1 {
		return ret
	}
	ret.ApexSpeed = lap.Samples[apex].Speed
	ret.ApexDistance = lap.Samples[apex].Distance
	for i := apex; i < len(lap.Samples) && lap.Samples[i].Distance <= to; i++ {
		if lap.Samples[i].Throttle > cfg.ThrottleOn {
			ret.ThrottleOnset = lap.Samples[i].Distance
			ret.HasThrottleOnset = true
			break
		}
	}
	return ret
}

// compare fills the deltas of m against the reference measurement and
// classifies the main cause of a time loss.
func compare(cfg Config, m, ref *model.CornerMetric) {
	m.TimeDelta = m.Elapsed - ref.Elapsed
	m.EntrySpeedDelta = m.EntrySpeed - ref.EntrySpeed
	m.ApexSpeedDelta = m.ApexSpeed - ref.ApexSpeed
	m.ExitSpeedDelta = m.ExitSpeed - ref.ExitSpeed
	m.ApexDistDelta = m.ApexDistance - ref.ApexDistance
	if m.HasBrakeOnset && ref.HasBrakeOnset {
		m.BrakeOnsetDelta = m.BrakeOnset - ref.BrakeOnset
	}
	if m.HasThrottleOnset && ref.HasThrottleOnset {
		m.ThrottleDelta = m.ThrottleOnset - ref.ThrottleOnset
	}
	m.Cause = classify(cfg, m)
}

// classify applies the rules in priority order, the first one that fires wins.
func classify(cfg Config, m *model.CornerMetric) model.CornerCause {
	if m.TimeDelta <= cfg.LossThreshold {
		return model.CauseClean
	}
	switch {
	case m.BrakeOnsetDelta > cfg.BrakeTolerance:
		return model.CauseBrakeEarlier
	case m.ExitSpeedDelta < -cfg.SpeedTolerance:
		return model.CauseExitSpeedLow
	case m.ApexSpeedDelta < -cfg.SpeedTolerance:
		return model.CauseOverSlowedApex
	case m.EntrySpeedDelta < -cfg.SpeedTolerance:
		return model.CauseCarryEntrySpeed
	case m.ThrottleDelta > cfg.ThrottleTolerance:
		return model.CauseThrottleLate
	}
	return model.CauseClean
}
