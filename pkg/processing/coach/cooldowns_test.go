package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCooldowns(t *testing.T) {
	c := NewCooldowns(DefaultCooldowns())
	assert.True(t, c.Ready(CategoryBrake, 0), "never fired")

	c.Mark(CategoryBrake, 500)
	assert.False(t, c.Ready(CategoryBrake, 550))
	assert.False(t, c.Ready(CategoryBrake, 381), "distance is absolute")
	assert.True(t, c.Ready(CategoryBrake, 620))
	assert.True(t, c.Ready(CategoryGear, 510), "other categories unaffected")

	assert.True(t, c.Ready("unknown", 500))
	c.Mark("unknown", 500)
	assert.True(t, c.Ready("unknown", 500))

	c.Reset()
	assert.True(t, c.Ready(CategoryBrake, 550))
}

func TestCooldownsOwnCopy(t *testing.T) {
	spacing := map[string]float64{"x": 100}
	c := NewCooldowns(spacing)
	spacing["x"] = 1000
	c.Mark("x", 0)
	assert.True(t, c.Ready("x", 100))
}

func TestCooldownsLargeSpacing(t *testing.T) {
	c := NewCooldowns(map[string]float64{"x": 5000})
	assert.True(t, c.Ready("x", 0), "never fired")
	assert.True(t, c.Ready("x", 1200), "never fired")
	c.Mark("x", 1200)
	assert.False(t, c.Ready("x", 4000))
	c.Reset()
	assert.True(t, c.Ready("x", 0))
}
