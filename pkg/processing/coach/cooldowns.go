package coach

import (
	"maps"
	"math"
)

// Cooldowns keeps a minimum lap distance between two cues of the same
// category. Categories without a configured spacing are always ready.
type Cooldowns struct {
	spacing map[string]float64
	last    map[string]float64 // only categories fired in the current lap
}

func NewCooldowns(spacing map[string]float64) *Cooldowns {
	return &Cooldowns{
		spacing: maps.Clone(spacing),
		last:    make(map[string]float64, len(spacing)),
	}
}

func (c *Cooldowns) Ready(category string, d float64) bool {
	sp, ok := c.spacing[category]
	if !ok {
		return true
	}
	last, fired := c.last[category]
	return !fired || math.Abs(d-last) >= sp
}

func (c *Cooldowns) Mark(category string, d float64) {
	if _, ok := c.spacing[category]; ok {
		c.last[category] = d
	}
}

// Reset is called at every lap start
func (c *Cooldowns) Reset() {
	clear(c.last)
}
