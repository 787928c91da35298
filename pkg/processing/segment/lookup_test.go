package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
)

func sampleCorners() []model.Corner {
	return []model.Corner{
		{Index: 1, Source: model.SourceBraking, Start: 100, End: 180, Exit: 230},
		{Index: 2, Source: model.SourceSteering, Start: 300, End: 350, Exit: 395},
		{Index: 3, Source: model.SourceBraking, Start: 600, End: 680, Exit: 730},
	}
}

func TestNextBrakingCorner(t *testing.T) {
	corners := sampleCorners()
	tests := []struct {
		name string
		d    float64
		want int
	}{
		{name: "before first", d: 10, want: 1},
		{name: "skips steering corner", d: 200, want: 3},
		{name: "wraps to first", d: 900, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBrakingCorner(corners, tt.d)
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.Index)
			}
		})
	}
	assert.Nil(t, NextBrakingCorner(nil, 0))
}

func TestRecentlyExited(t *testing.T) {
	corners := sampleCorners()
	assert.Nil(t, RecentlyExited(corners, 230, nil))
	if got := RecentlyExited(corners, 260, nil); assert.NotNil(t, got) {
		assert.Equal(t, 1, got.Index)
	}
	assert.Nil(t, RecentlyExited(corners, 310, nil))
	assert.Nil(t, RecentlyExited(corners, 260, func(turn int) bool { return turn == 1 }))
}

func TestBrakeWarningDistance(t *testing.T) {
	c := &model.Corner{ApexSpeed: 80}
	assert.InDelta(t, 200/3.6*0.2+10+16, BrakeWarningDistance(200, c), 1e-9)
	assert.Zero(t, BrakeWarningDistance(70, c))
	assert.Zero(t, BrakeWarningDistance(200, nil))
}
