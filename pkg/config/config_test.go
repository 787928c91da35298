package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadCoachConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
coach:
  segment:
    minCorners: 5
  reference:
    bins: 200
  coach:
    minDistance: 80
    cooldowns:
      brake: 150
  scheduler:
    maxPending: 4
    cooldown: 1s
`))
	assert.NoError(t, err)

	got, err := LoadCoachConfig(v)
	assert.NoError(t, err)
	want := DefaultCoachConfig()
	assert.Equal(t, 5, got.Processing.Segment.MinCorners)
	assert.Equal(t, 200, got.Processing.Reference.Bins)
	assert.Equal(t, 80.0, got.Processing.Coach.MinDistance)
	assert.Equal(t, 150.0, got.Processing.Coach.Cooldowns["brake"])
	assert.Equal(t, want.Processing.Coach.Cooldowns["gear"], got.Processing.Coach.Cooldowns["gear"])
	assert.Equal(t, 4, got.Scheduler.MaxPending)
	assert.Equal(t, time.Second, got.Scheduler.Cooldown)
	assert.Equal(t, want.Scheduler.MaxAge, got.Scheduler.MaxAge)
	assert.Equal(t, want.Processing.Analytics, got.Processing.Analytics)
}

func TestLoadCoachConfigDefaults(t *testing.T) {
	got, err := LoadCoachConfig(viper.New())
	assert.NoError(t, err)
	assert.Equal(t, DefaultCoachConfig(), got)
}
