package reference

import (
	"math"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/interp"
)

// BinProfile maps N evenly spaced track positions to the cumulative lap
// time at which they were passed. Bin i is located at i*Length/N.
type BinProfile struct {
	Length    float64
	Times     []float64
	Positions []model.Vec2

	reached int
	lastD   float64
	lastT   float64
	lastPos model.Vec2
}

func NewBinProfile(n int, length float64) *BinProfile {
	return &BinProfile{
		Length:    length,
		Times:     make([]float64, n),
		Positions: make([]model.Vec2, n),
	}
}

// BuildProfile samples a closed lap at all bin positions.
func BuildProfile(lap *model.Lap, n int, length float64) *BinProfile {
	ret := NewBinProfile(n, length)
	if lap == nil || len(lap.Samples) == 0 || length <= 0 {
		return ret
	}
	times := interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.LapTime })
	xs := interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Position.X })
	zs := interp.FromLap(lap, func(s *model.TelemetrySample) float64 { return s.Position.Z })
	for i := range n {
		d := ret.Position(i)
		ret.Times[i] = times.At(d)
		ret.Positions[i] = model.Vec2{X: xs.At(d), Z: zs.At(d)}
	}
	ret.reached = n
	return ret
}

func (p *BinProfile) Len() int { return len(p.Times) }

// Position returns the track distance of bin i.
func (p *BinProfile) Position(i int) float64 {
	return float64(i) * p.Length / float64(len(p.Times))
}

// Reached returns the number of bins filled so far.
func (p *BinProfile) Reached() int { return p.reached }

// bin returns the index of the highest bin located at or before d.
func (p *BinProfile) bin(d float64) int {
	if p.Length <= 0 {
		return -1
	}
	n := len(p.Times)
	return min(int(math.Floor(d*float64(n)/p.Length)), n-1)
}

// Update records that distance d was reached at time t. All bins between the
// previous update and d are filled by linear interpolation. Going backwards
// is ignored.
func (p *BinProfile) Update(d, t float64, pos model.Vec2) {
	if d < p.lastD || len(p.Times) == 0 {
		return
	}
	if p.reached == 0 {
		p.lastPos = pos
	}
	k := p.bin(d)
	for i := p.reached; i <= k; i++ {
		bd := p.Position(i)
		f := 1.0
		if d > p.lastD {
			f = (bd - p.lastD) / (d - p.lastD)
		}
		p.Times[i] = p.lastT + (t-p.lastT)*f
		p.Positions[i] = model.Vec2{
			X: p.lastPos.X + (pos.X-p.lastPos.X)*f,
			Z: p.lastPos.Z + (pos.Z-p.lastPos.Z)*f,
		}
	}
	p.reached = max(p.reached, k+1)
	p.lastD, p.lastT, p.lastPos = d, t, pos
}

// Segments returns the time spent between bin i and bin i+1, the last
// segment ends with lapTime.
func (p *BinProfile) Segments(lapTime float64) []float64 {
	n := len(p.Times)
	ret := make([]float64, n)
	for i := range n {
		next := lapTime
		if i+1 < n {
			next = p.Times[i+1]
		}
		ret[i] = next - p.Times[i]
	}
	return ret
}
