//nolint:funlen // readability
package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhrasesNoImmediateRepeat(t *testing.T) {
	p := NewPhrases(42)
	last := ""
	seen := map[string]bool{}
	for range 200 {
		got := p.Say(keyBrakeNow)
		assert.NotEqual(t, last, got)
		last = got
		seen[got] = true
	}
	assert.Len(t, seen, len(defaultBank[keyBrakeNow]))
}

func TestPhrasesSay(t *testing.T) {
	tests := []struct {
		name string
		key  string
		args []string
		want string
	}{
		{
			name: "single phrase with args",
			key:  keyLapTime,
			args: []string{"lap", "3", "time", "1 minute 30 point 500"},
			want: "Lap 3, 1 minute 30 point 500",
		},
		{
			name: "event kind",
			key:  "penalty_time",
			args: []string{"seconds", "5"},
			want: "5 second penalty.",
		},
		{
			name: "unknown key",
			key:  "something else",
			want: "something else",
		},
		{
			name: "dangling arg is ignored",
			key:  keyCornerGood,
			args: []string{"turn", "4", "extra"},
			want: "Good turn 4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPhrases(1)
			assert.Equal(t, tt.want, p.Say(tt.key, tt.args...))
		})
	}
}

func TestSpeakTime(t *testing.T) {
	tests := []struct {
		name string
		secs float64
		want string
	}{
		{"with minutes", 83.456, "1 minute 23 point 456"},
		{"below a minute", 28.4, "28 point 400"},
		{"rounding into the next minute", 59.9996, "1 minute 0 point 000"},
		{"two minutes", 125.007, "2 minute 5 point 007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeakTime(tt.secs))
		})
	}
}

func TestSpeakDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  string
	}{
		{"below a second", 0.346, "0 point 346"},
		{"negative", -1.25, "1 point 250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeakDelta(tt.delta))
		})
	}
}

func TestSpeakSignedDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  string
	}{
		{"digits below a second", 0.346, "plus point 3 4 6"},
		{"leading zero digit", 0.05, "plus point 0 5 0"},
		{"negative above a second", -1.24, "minus 1 point 2"},
		{"tenth rounds up", 1.96, "plus 2 point 0"},
		{"rounds to a full second", 0.9996, "plus 1 point 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeakSignedDelta(tt.delta))
		})
	}
}

func TestSpeakSectorTime(t *testing.T) {
	assert.Equal(t, "28 point 4", SpeakSectorTime(28.44))
	assert.Equal(t, "29 point 0", SpeakSectorTime(28.96))
}
