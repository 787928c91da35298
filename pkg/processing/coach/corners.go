package coach

import (
	"strconv"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
)

// cornerTrack holds what the driver did in a corner during the current lap
type cornerTrack struct {
	brake       float64
	hasBrake    bool
	minSpeed    float64
	minSpeedAt  float64
	hasMin      bool
	throttle    float64
	hasThrottle bool
}

// trackCorners updates the live measurements of all corners.
func (c *Coach) trackCorners(s *model.TelemetrySample, corners []model.Corner) {
	d := s.Distance
	for i := range corners {
		zone := &corners[i]
		ct, ok := c.corners[zone.Index]
		if !ok {
			ct = &cornerTrack{}
			c.corners[zone.Index] = ct
		}
		if !ct.hasBrake && d > zone.Start-c.cfg.CornerLead && d < zone.End &&
			s.Brake > c.cfg.CornerBrake {
			ct.brake = d
			ct.hasBrake = true
		}
		if d > zone.Start && d < zone.Exit && (!ct.hasMin || s.Speed < ct.minSpeed) {
			ct.minSpeed = s.Speed
			ct.minSpeedAt = d
			ct.hasMin = true
		}
		if ct.hasMin && !ct.hasThrottle && d > ct.minSpeedAt && s.Throttle > c.cfg.CornerThrottle {
			ct.throttle = d
			ct.hasThrottle = true
		}
	}
}

// cornerFeedback comments on a corner right after it was left. The brake
// point is checked first, then the minimum speed, then the throttle
// application.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) cornerFeedback(
	s *model.TelemetrySample,
	corners []model.Corner,
) *model.CoachingMessage {
	if !c.cooldowns.Ready(CategoryCorner, s.Distance) {
		return nil
	}
	zone := segment.RecentlyExited(corners, s.Distance,
		func(turn int) bool { return c.feedback[turn] })
	if zone == nil || s.LapTime <= 0 {
		return nil
	}
	ct := c.corners[zone.Index]
	if ct == nil {
		ct = &cornerTrack{}
	}
	key := c.judgeCorner(ct, zone)
	c.feedback[zone.Index] = true
	c.cooldowns.Mark(CategoryCorner, s.Distance)
	m := c.message(c.phrases.Say(key, "turn", strconv.Itoa(zone.Index)),
		CategoryCorner, model.PriorityMedium, s.Distance, c.cfg.FeedbackValidRange, false)
	return &m
}

func (c *Coach) judgeCorner(ct *cornerTrack, zone *model.Corner) string {
	if ct.hasBrake && zone.HasBrakeOnset {
		diff := ct.brake - zone.BrakeOnset
		switch {
		case diff < -c.cfg.BrakeTolerance:
			return keyCornerBrakeLater
		case diff > c.cfg.BrakeTolerance:
			return keyCornerGoodBrake
		}
	}
	if ct.hasMin {
		diff := ct.minSpeed - zone.ApexSpeed
		switch {
		case diff < -c.cfg.SpeedTolerance:
			return keyCornerCarrySpeed
		case diff > c.cfg.SpeedTolerance:
			return keyCornerGoodSpeed
		}
	}
	if ct.hasThrottle && zone.HasThrottleOnset {
		diff := ct.throttle - zone.ThrottleOnset
		switch {
		case diff > c.cfg.ThrottleTolerance:
			return keyCornerEarlierGas
		case diff < -c.cfg.ThrottleTolerance:
			return keyCornerGoodExit
		}
	}
	return keyCornerGood
}
