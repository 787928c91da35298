package events

import "github.com/mpapenbr/racecoach/pkg/model"

// CrashDetector reports sudden speed drops that are not caused by braking.
type CrashDetector struct {
	th        Thresholds
	lastSpeed float64
	ticks     int
}

func NewCrashDetector(th Thresholds) *CrashDetector {
	return &CrashDetector{th: th}
}

func (c *CrashDetector) Check(s *model.TelemetrySample, g Gate) *Detection {
	drop := c.lastSpeed - s.Speed
	c.lastSpeed = s.Speed
	if c.ticks > 0 {
		c.ticks--
		return nil
	}
	if s.Brake >= c.th.CrashMaxBrake || !g.Ready(CategoryCrash, s.Distance) {
		return nil
	}
	switch {
	case drop > c.th.CrashHeavyDrop:
		g.Mark(CategoryCrash, s.Distance)
		c.ticks = c.th.CrashHeavyTicks
		return &Detection{Kind: KindCrashHeavy, Priority: model.PriorityCritical, Forced: true}
	case drop > c.th.CrashLightDrop:
		g.Mark(CategoryCrash, s.Distance)
		c.ticks = c.th.CrashLightTicks
		return &Detection{Kind: KindCrashLight, Priority: model.PriorityHigh}
	}
	return nil
}

// DamageDetector reports increases of component damage.
type DamageDetector struct {
	th   Thresholds
	last model.Damage
}

func NewDamageDetector(th Thresholds) *DamageDetector {
	return &DamageDetector{th: th}
}

// Check compares dmg with the last accepted values. While the damage
// category is cooling down the values are not taken over, so the increase
// is reported once the cooldown passed.
func (c *DamageDetector) Check(dmg *model.Damage, d float64, g Gate) *Detection {
	if dmg == nil || !g.Ready(CategoryDamage, d) {
		return nil
	}
	last := c.last
	c.last = *dmg

	front := max(dmg.FrontLeftWing, dmg.FrontRightWing)
	lastFront := max(last.FrontLeftWing, last.FrontRightWing)
	switch {
	case front > lastFront+c.th.FrontWingStep:
		g.Mark(CategoryDamage, d)
		switch {
		case front > c.th.FrontWingHeavy:
			return &Detection{
				Kind:     KindDamageFrontWingHeavy,
				Priority: model.PriorityHigh,
				Forced:   true,
			}
		case front > c.th.FrontWingLight:
			return &Detection{Kind: KindDamageFrontWingLight, Priority: model.PriorityMedium}
		}
	case dmg.RearWing > last.RearWing+c.th.RearWingStep:
		g.Mark(CategoryDamage, d)
		return &Detection{Kind: KindDamageRearWing, Priority: model.PriorityHigh}
	case dmg.Floor > last.Floor+c.th.FloorStep:
		g.Mark(CategoryDamage, d)
		return &Detection{Kind: KindDamageFloor, Priority: model.PriorityMedium}
	}
	return nil
}

// PenaltyDetector watches the session penalty counters.
type PenaltyDetector struct {
	warnings       int
	cornerWarnings int
	penalties      int
}

func (p *PenaltyDetector) Check(s *model.TelemetrySample) []Detection {
	var ret []Detection
	switch {
	case s.CornerWarnings > p.cornerWarnings:
		ret = append(ret, Detection{Kind: KindPenaltyCornerCutting, Priority: model.PriorityMedium})
	case s.Warnings > p.warnings:
		ret = append(ret, Detection{Kind: KindPenaltyWarning, Priority: model.PriorityMedium})
	}
	if s.Penalties > p.penalties {
		ret = append(ret, Detection{
			Kind:     KindPenaltyTime,
			Priority: model.PriorityHigh,
			Forced:   true,
			Seconds:  s.Penalties - p.penalties,
		})
	}
	p.warnings = s.Warnings
	p.cornerWarnings = s.CornerWarnings
	p.penalties = s.Penalties
	return ret
}

// ValidityDetector tracks the sticky invalid state of the current lap.
type ValidityDetector struct {
	invalid bool
	last    bool
}

// Update takes the raw flag of a sample and returns true exactly once per
// lap, when the flag rises for the first time.
func (v *ValidityDetector) Update(flag bool) bool {
	rise := flag && !v.last && !v.invalid
	if rise {
		v.invalid = true
	}
	v.last = flag
	return rise
}

func (v *ValidityDetector) Invalid() bool { return v.invalid }

func (v *ValidityDetector) Reset() {
	v.invalid = false
	v.last = false
}
