// Package events detects incidents in the sample stream: crashes, damage,
// lap invalidation and penalties.
package events

import "github.com/mpapenbr/racecoach/pkg/model"

// Kind names the incident. The values double as phrase keys.
type Kind string

const (
	KindCrashHeavy           Kind = "crash_heavy"
	KindCrashLight           Kind = "crash_light"
	KindCollisionCar         Kind = "collision_car"
	KindDamageFrontWingLight Kind = "damage_front_wing_light"
	KindDamageFrontWingHeavy Kind = "damage_front_wing_heavy"
	KindDamageRearWing       Kind = "damage_rear_wing"
	KindDamageFloor          Kind = "damage_floor"
	KindPenaltyWarning       Kind = "penalty_warning"
	KindPenaltyCornerCutting Kind = "penalty_corner_cutting"
	KindPenaltyTime          Kind = "penalty_time"
	KindLapInvalidated       Kind = "lap_invalidated"
)

// cooldown categories used by the detectors
const (
	CategoryCrash   = "crash"
	CategoryDamage  = "damage"
	CategoryInvalid = "invalid"
)

// Detection is the outcome of a detector.
type Detection struct {
	Kind     Kind
	Priority model.Priority
	Forced   bool
	Seconds  int // KindPenaltyTime only
}

// Gate provides distance based cooldowns per category.
type Gate interface {
	Ready(category string, d float64) bool
	Mark(category string, d float64)
}

type Thresholds struct {
	CrashHeavyDrop  float64 `mapstructure:"crashHeavyDrop"`  // speed drop per tick
	CrashLightDrop  float64 `mapstructure:"crashLightDrop"`  // speed drop per tick
	CrashMaxBrake   float64 `mapstructure:"crashMaxBrake"`   // drops while braking are ignored
	CrashHeavyTicks int     `mapstructure:"crashHeavyTicks"` // samples to ignore after a heavy crash
	CrashLightTicks int     `mapstructure:"crashLightTicks"` // samples to ignore after a light crash
	FrontWingStep   float64 `mapstructure:"frontWingStep"`
	FrontWingHeavy  float64 `mapstructure:"frontWingHeavy"`
	FrontWingLight  float64 `mapstructure:"frontWingLight"`
	RearWingStep    float64 `mapstructure:"rearWingStep"`
	FloorStep       float64 `mapstructure:"floorStep"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CrashHeavyDrop:  80,
		CrashLightDrop:  40,
		CrashMaxBrake:   0.3,
		CrashHeavyTicks: 60,
		CrashLightTicks: 30,
		FrontWingStep:   10,
		FrontWingHeavy:  50,
		FrontWingLight:  20,
		RearWingStep:    10,
		FloorStep:       15,
	}
}

// Detectors bundles all sample based detectors of a session.
type Detectors struct {
	Crash   *CrashDetector
	Damage  *DamageDetector
	Penalty *PenaltyDetector
}

func NewDetectors(th Thresholds) *Detectors {
	return &Detectors{
		Crash:   NewCrashDetector(th),
		Damage:  NewDamageDetector(th),
		Penalty: &PenaltyDetector{},
	}
}

// Check runs penalty, crash and damage detection on one sample.
func (d *Detectors) Check(s *model.TelemetrySample, g Gate) []Detection {
	ret := d.Penalty.Check(s)
	if det := d.Crash.Check(s, g); det != nil {
		ret = append(ret, *det)
	}
	if det := d.Damage.Check(s.Damage, s.Distance, g); det != nil {
		ret = append(ret, *det)
	}
	return ret
}

// Collision maps a discrete session event to a detection.
// Returns nil for events that are no collision or while the crash
// category is cooling down.
//
//nolint:whitespace // can't make both editor and linter happy
func Collision(
	ev model.SessionEvent,
	d float64,
	g Gate,
) *Detection {
	var kind Kind
	switch ev.Kind {
	case model.EventCollisionCar:
		kind = KindCollisionCar
	case model.EventCollisionEnv:
		kind = KindCrashHeavy
	default:
		return nil
	}
	if !g.Ready(CategoryCrash, d) {
		return nil
	}
	g.Mark(CategoryCrash, d)
	return &Detection{Kind: kind, Priority: model.PriorityCritical, Forced: true}
}

// Invalidated returns the detection for a lap that just became invalid.
func Invalidated(d float64, g Gate) *Detection {
	if !g.Ready(CategoryInvalid, d) {
		return nil
	}
	g.Mark(CategoryInvalid, d)
	return &Detection{Kind: KindLapInvalidated, Priority: model.PriorityHigh, Forced: true}
}
