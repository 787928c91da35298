//nolint:funlen // readability
package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeries_At(t *testing.T) {
	type args struct {
		dist []float64
		vals []float64
		d    float64
	}
	tests := []struct {
		name string
		args args
		want float64
	}{
		{
			name: "empty series",
			args: args{d: 10},
			want: 0,
		},
		{
			name: "single sample",
			args: args{dist: []float64{5}, vals: []float64{3}, d: 100},
			want: 3,
		},
		{
			name: "before first",
			args: args{dist: []float64{10, 20}, vals: []float64{1, 2}, d: 0},
			want: 1,
		},
		{
			name: "after last",
			args: args{dist: []float64{10, 20}, vals: []float64{1, 2}, d: 30},
			want: 2,
		},
		{
			name: "exact hit",
			args: args{dist: []float64{10, 20, 30}, vals: []float64{1, 5, 2}, d: 20},
			want: 5,
		},
		{
			name: "interpolate",
			args: args{dist: []float64{10, 20}, vals: []float64{1, 2}, d: 12.5},
			want: 1.25,
		},
		{
			name: "unsorted input",
			args: args{dist: []float64{20, 10}, vals: []float64{2, 1}, d: 15},
			want: 1.5,
		},
		{
			name: "duplicate distance first occurrence wins",
			args: args{dist: []float64{10, 20, 20, 30}, vals: []float64{1, 4, 8, 2}, d: 20},
			want: 4,
		},
		{
			name: "duplicate distance at the end",
			args: args{dist: []float64{10, 20, 20}, vals: []float64{1, 4, 8}, d: 25},
			want: 4,
		},
		{
			name: "interpolate after duplicate",
			args: args{dist: []float64{10, 10, 20}, vals: []float64{1, 3, 5}, d: 15},
			want: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeries(tt.args.dist, tt.args.vals)
			assert.InDelta(t, tt.want, s.At(tt.args.d), 1e-9)
		})
	}
}

func TestSeries_AtStaysInRange(t *testing.T) {
	dist := []float64{0, 3, 7, 12, 20, 21, 40}
	vals := []float64{4, -2, 9, 9, 1, 0, 6}
	s := NewSeries(dist, vals)
	for d := -10.0; d < 50; d += 0.37 {
		v := s.At(d)
		assert.GreaterOrEqual(t, v, -2.0, "d=%v", d)
		assert.LessOrEqual(t, v, 9.0, "d=%v", d)
	}
	for i := range dist {
		assert.InDelta(t, vals[i], s.At(dist[i]), 1e-12, "exact d=%v", dist[i])
	}
}

func TestSeries_Nearest(t *testing.T) {
	s := NewSeries([]float64{10, 20, 30}, []float64{3, 4, 5})
	tests := []struct {
		name string
		d    float64
		want int
	}{
		{name: "below", d: 0, want: 0},
		{name: "above", d: 99, want: 2},
		{name: "closer to lower", d: 14, want: 0},
		{name: "closer to upper", d: 16, want: 1},
		{name: "tie takes earlier", d: 25, want: 1},
		{name: "exact", d: 30, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Nearest(tt.d))
		})
	}
	assert.Equal(t, -1, NewSeries(nil, nil).Nearest(3))
}

func TestNewSeries_CopiesInput(t *testing.T) {
	dist := []float64{1, 2}
	vals := []float64{1, 2}
	s := NewSeries(dist, vals)
	vals[0] = 100
	assert.InDelta(t, 1.0, s.At(1), 1e-12)
}
