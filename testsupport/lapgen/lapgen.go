// Package lapgen creates synthetic laps for tests.
package lapgen

import (
	"math"

	"github.com/mpapenbr/racecoach/pkg/model"
)

// Zone describes a braking zone (or a bend when Brake is 0).
// Speed drops linearly from the base speed to MinSpeed at the middle of the
// zone and recovers until To.
type Zone struct {
	From     float64
	To       float64
	Brake    float64
	MinSpeed float64
	Gear     int
	Steer    float64
}

type gen struct {
	lapNo      int
	length     float64
	step       float64
	speed      float64
	zones      []Zone
	lapTime    float64
	offsetFrom float64
	offset     float64
	invalid    [][2]float64
	steer      bool
	position   bool
}

type Option func(g *gen)

func WithLapNo(n int) Option          { return func(g *gen) { g.lapNo = n } }
func WithLength(l float64) Option     { return func(g *gen) { g.length = l } }
func WithStep(s float64) Option       { return func(g *gen) { g.step = s } }
func WithSpeed(kmh float64) Option    { return func(g *gen) { g.speed = kmh } }
func WithZones(z ...Zone) Option      { return func(g *gen) { g.zones = append(g.zones, z...) } }
func WithLapTime(secs float64) Option { return func(g *gen) { g.lapTime = secs } }
func WithSteering() Option            { return func(g *gen) { g.steer = true } }
func WithPosition() Option            { return func(g *gen) { g.position = true } }
func WithInvalid(from, to float64) Option {
	return func(g *gen) { g.invalid = append(g.invalid, [2]float64{from, to}) }
}

// WithTimeOffset adds secs to the lap time of every sample at or after d.
func WithTimeOffset(d, secs float64) Option {
	return func(g *gen) {
		g.offsetFrom = d
		g.offset = secs
	}
}

// Lap creates a closed lap with samples every step units from 0 to length.
// Defaults: lap 1, length 1000, step 10, speed 180 km/h.
//
//nolint:funlen // by design
func Lap(opts ...Option) *model.Lap {
	g := &gen{lapNo: 1, length: 1000, step: 10, speed: 180, offsetFrom: math.Inf(1)}
	for _, opt := range opts {
		opt(g)
	}
	n := int(math.Round(g.length/g.step)) + 1
	samples := make([]model.TelemetrySample, n)
	t := 0.0
	for i := range samples {
		d := float64(i) * g.step
		if i > 0 {
			t += g.step / (samples[i-1].Speed / 3.6)
		}
		samples[i] = g.sample(d, t)
	}

	raw := t
	scale := 1.0
	if g.lapTime > 0 && raw > 0 {
		scale = g.lapTime / raw
	}
	third := g.length / 3
	var s1, s2 float64
	for i := range samples {
		s := &samples[i]
		s.LapTime *= scale
		if s.Distance >= g.offsetFrom {
			s.LapTime += g.offset
		}
		s.Sector = min(int(s.Distance/third), 2)
		if s.Sector >= 1 && s1 == 0 {
			s1 = s.LapTime
		}
		if s.Sector >= 2 && s2 == 0 {
			s2 = s.LapTime
		}
		if s.Sector >= 1 {
			s.Sector1Time = s1
		}
		if s.Sector >= 2 {
			s.Sector2Time = s2
		}
	}
	lapTime := samples[n-1].LapTime
	return &model.Lap{
		LapNo:   g.lapNo,
		LapTime: lapTime,
		Sectors: [3]float64{s1, s2 - s1, lapTime - s2},
		Valid:   len(g.invalid) == 0,
		Result:  model.ResultCompletedValid,
		Samples: samples,
	}
}

func (g *gen) sample(d, t float64) model.TelemetrySample {
	ret := model.TelemetrySample{
		Distance:    d,
		LapTime:     t,
		SessionTime: t,
		Speed:       g.speed,
		Throttle:    1,
		Gear:        6,
		LapNo:       g.lapNo,
		HasSteer:    g.steer,
		HasPosition: g.position,
	}
	for _, z := range g.zones {
		if z.To <= z.From || d < z.From || d > z.To {
			continue
		}
		mid := (z.From + z.To) / 2
		frac := 1 - math.Abs(d-mid)/(mid-z.From)
		ret.Speed = g.speed - (g.speed-z.MinSpeed)*frac
		switch {
		case z.Brake > 0:
			ret.Brake = z.Brake
			ret.Throttle = 0
		case d <= mid:
			ret.Throttle = 0.3
		default:
			ret.Throttle = 0.8
		}
		if z.Gear > 0 {
			ret.Gear = z.Gear
		}
		if g.steer {
			ret.Steer = z.Steer
		}
	}
	for _, r := range g.invalid {
		if d >= r[0] && d < r[1] {
			ret.LapInvalid = true
		}
	}
	if g.position {
		a := 2 * math.Pi * d / g.length
		r := g.length / (2 * math.Pi)
		ret.Position = model.Vec2{X: math.Cos(a) * r, Z: math.Sin(a) * r}
	}
	return ret
}

// Stream concatenates the laps into the sample sequence a live source would
// produce. Every sample carries the time of the previous lap as last lap time.
func Stream(laps ...*model.Lap) []model.TelemetrySample {
	ret := []model.TelemetrySample{}
	last := 0.0
	offset := 0.0
	for _, l := range laps {
		for _, s := range l.Samples {
			s.LastLapTime = last
			s.SessionTime = offset + s.LapTime
			ret = append(ret, s)
		}
		last = l.LapTime
		offset += l.LapTime
	}
	return ret
}
