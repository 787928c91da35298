package analytics

import (
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/racecoach/pkg/model"
)

// inputStats describes how the pedals and the wheel were used during a lap.
// Rates are in units per second.
type inputStats struct {
	peakBrake    float64
	brakeRate    float64 // 90th percentile of brake application rate
	throttleJerk float64 // mean absolute throttle rate
	steeringRate float64 // mean absolute steering rate
	hasSteer     bool
}

// thresholds for the driver profile tags
const (
	hardBrakePeak     = 0.95
	fastBrakeRate     = 8.0
	slowBrakeRate     = 3.0
	lowBrakePeak      = 0.7
	abruptThrottle    = 2.0
	smoothThrottle    = 0.8
	busySteering      = 1.5
	smoothSteering    = 0.5
	tagBalanced       = "balanced"
	tagAggressive     = "aggressive braker"
	tagGentle         = "gentle braker"
	tagUnderBraking   = "under-braking"
	tagAbrupt         = "abrupt throttle"
	tagSmoothThrottle = "smooth throttle"
	tagBusyHands      = "busy hands"
	tagSmoothSteering = "smooth steering"
)

func measureInputs(lap *model.Lap) inputStats {
	ret := inputStats{}
	var brakeRates, throttleRates, steerRates []float64
	for i := range lap.Samples {
		s := &lap.Samples[i]
		ret.peakBrake = math.Max(ret.peakBrake, s.Brake)
		ret.hasSteer = ret.hasSteer || s.HasSteer
		if i == 0 {
			continue
		}
		p := &lap.Samples[i-1]
		dt := s.LapTime - p.LapTime
		if dt <= 0 {
			continue
		}
		if rate := (s.Brake - p.Brake) / dt; rate > 0 {
			brakeRates = append(brakeRates, rate)
		}
		throttleRates = append(throttleRates, math.Abs(s.Throttle-p.Throttle)/dt)
		steerRates = append(steerRates, math.Abs(s.Steer-p.Steer)/dt)
	}
	ret.brakeRate = quantile(0.9, brakeRates)
	ret.throttleJerk = mean(throttleRates)
	if ret.hasSteer {
		ret.steeringRate = mean(steerRates)
	}
	return ret
}

func (a *Analyzer) profile() model.DriverProfile {
	laps := keepLast(a.laps, a.cfg.ProfileWindow)
	if len(laps) == 0 {
		return model.DriverProfile{Tags: []string{}}
	}
	ret := model.DriverProfile{
		Laps:         len(laps),
		PeakBrake:    mean(lo.Map(laps, func(l lapRecord, _ int) float64 { return l.inputs.peakBrake })),
		BrakeRate:    mean(lo.Map(laps, func(l lapRecord, _ int) float64 { return l.inputs.brakeRate })),
		ThrottleJerk: mean(lo.Map(laps, func(l lapRecord, _ int) float64 { return l.inputs.throttleJerk })),
	}
	steer := lo.FilterMap(laps, func(l lapRecord, _ int) (float64, bool) {
		return l.inputs.steeringRate, l.inputs.hasSteer
	})
	ret.SteeringRate = mean(steer)

	tags := []string{}
	switch {
	case ret.PeakBrake >= hardBrakePeak && ret.BrakeRate >= fastBrakeRate:
		tags = append(tags, tagAggressive)
	case ret.PeakBrake > 0 && ret.PeakBrake < lowBrakePeak:
		tags = append(tags, tagUnderBraking)
	case ret.BrakeRate > 0 && ret.BrakeRate < slowBrakeRate:
		tags = append(tags, tagGentle)
	}
	switch {
	case ret.ThrottleJerk > abruptThrottle:
		tags = append(tags, tagAbrupt)
	case ret.ThrottleJerk < smoothThrottle:
		tags = append(tags, tagSmoothThrottle)
	}
	if len(steer) > 0 {
		switch {
		case ret.SteeringRate > busySteering:
			tags = append(tags, tagBusyHands)
		case ret.SteeringRate < smoothSteering:
			tags = append(tags, tagSmoothSteering)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, tagBalanced)
	}
	ret.Tags = tags
	return ret
}
