package coach

import (
	"strconv"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/reference"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
)

// valid ranges of the per tick cues
const (
	rangeBrakeWarning = 80.0
	rangeBrakeNow     = 60.0
	rangeGear         = 80.0
	rangeThrottle     = 80.0
	rangeSlow         = 120.0
	rangeGoodSpeed    = 80.0
)

//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) checkBraking(
	s *model.TelemetrySample,
	corners []model.Corner,
	trackLength float64,
) *model.CoachingMessage {
	if !c.cooldowns.Ready(CategoryBrake, s.Distance) {
		return nil
	}
	zone := segment.NextBrakingCorner(corners, s.Distance)
	if zone == nil {
		return nil
	}
	dist := zone.Start - s.Distance
	if dist < 0 {
		dist += trackLength
	}

	if dist > c.cfg.BrakeWarnFrom && dist < c.cfg.BrakeWarnTo &&
		!c.warned[zone.Index] && s.Speed > zone.ApexSpeed+c.cfg.BrakeWarnMargin {
		c.warned[zone.Index] = true
		c.cooldowns.Mark(CategoryBrake, s.Distance)
		m := c.message(c.phrases.Say(keyBrakeWarning), CategoryBrake,
			model.PriorityHigh, s.Distance, rangeBrakeWarning, false)
		return &m
	}

	warn := segment.BrakeWarningDistance(s.Speed, zone)
	if dist <= 0 || dist >= warn {
		return nil
	}
	if s.Throttle <= c.cfg.BrakeNowThrottle || s.Brake >= c.cfg.BrakeNowBrake {
		return nil
	}
	var text string
	if zone.MinGear > 0 && zone.MinGear < s.Gear-c.cfg.GearMargin {
		text = c.phrases.Say(keyBrakeWithGear, "gear", strconv.Itoa(zone.MinGear))
	} else {
		text = c.phrases.Say(keyBrakeNow)
	}
	c.cooldowns.Mark(CategoryBrake, s.Distance)
	c.log.Debug("brake cue",
		log.Int("turn", zone.Index),
		log.Float64("distance", s.Distance),
		log.Float64("toZone", dist),
		log.Float64("warnDistance", warn))
	m := c.message(text, CategoryBrake, model.PriorityCritical, s.Distance, rangeBrakeNow, false)
	return &m
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) checkGear(
	s *model.TelemetrySample,
	ref *reference.Point,
) *model.CoachingMessage {
	if !c.cooldowns.Ready(CategoryGear, s.Distance) {
		return nil
	}
	if ref.Gear <= 0 || s.Gear <= ref.Gear+c.cfg.GearMargin {
		return nil
	}
	c.cooldowns.Mark(CategoryGear, s.Distance)
	m := c.message(c.phrases.Say(keyDownshift, "gear", strconv.Itoa(ref.Gear)),
		CategoryGear, model.PriorityHigh, s.Distance, rangeGear, false)
	return &m
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) checkThrottle(
	s *model.TelemetrySample,
	ref *reference.Point,
) *model.CoachingMessage {
	if !c.cooldowns.Ready(CategoryThrottle, s.Distance) {
		return nil
	}
	if ref.Throttle <= c.cfg.ThrottleRef ||
		s.Throttle >= c.cfg.ThrottleLive ||
		s.Brake >= c.cfg.ThrottleBrake {
		return nil
	}
	c.cooldowns.Mark(CategoryThrottle, s.Distance)
	m := c.message(c.phrases.Say(keyGetOnPower),
		CategoryThrottle, model.PriorityMedium, s.Distance, rangeThrottle, false)
	return &m
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Coach) checkSpeed(
	s *model.TelemetrySample,
	ref *reference.Point,
) *model.CoachingMessage {
	if !c.cooldowns.Ready(CategorySpeed, s.Distance) {
		return nil
	}
	diff := s.Speed - ref.Speed
	switch {
	case diff < -c.cfg.SpeedDeficit && s.Speed < c.cfg.SpeedCeiling:
		c.cooldowns.Mark(CategorySpeed, s.Distance)
		m := c.message(c.phrases.Say(keyCarryMoreSpeed),
			CategorySpeed, model.PriorityLow, s.Distance, rangeSlow, false)
		return &m
	case diff > c.cfg.SpeedGain && ref.Speed < c.cfg.SpeedCeiling &&
		c.cooldowns.Ready(CategoryPositive, s.Distance):
		c.cooldowns.Mark(CategoryPositive, s.Distance)
		m := c.message(c.phrases.Say(keyGoodSpeed),
			CategoryPositive, model.PriorityLow, s.Distance, rangeGoodSpeed, false)
		return &m
	}
	return nil
}
