package coach

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

//nolint:gochecknoglobals // constants
var (
	sixty    = decimal.NewFromInt(60)
	thousand = decimal.NewFromInt(1000)
	one      = decimal.NewFromInt(1)
)

// SpeakTime formats a lap time for speech, e.g. "1 minute 23 point 456".
// The minute part is omitted below one minute.
func SpeakTime(secs float64) string {
	d := decimal.NewFromFloat(secs).Abs().Round(3)
	mins := d.Div(sixty).Floor()
	rest := d.Sub(mins.Mul(sixty))
	whole, ms := splitMillis(rest)
	if mins.IsPositive() {
		return fmt.Sprintf("%d minute %d point %03d", mins.IntPart(), whole, ms)
	}
	return fmt.Sprintf("%d point %03d", whole, ms)
}

// SpeakDelta formats the magnitude of a delta, e.g. "0 point 346".
func SpeakDelta(delta float64) string {
	whole, ms := splitMillis(decimal.NewFromFloat(delta).Abs().Round(3))
	return fmt.Sprintf("%d point %03d", whole, ms)
}

// SpeakSignedDelta formats a delta the way it is called out after a sector.
// Below one second the digits are spoken one by one ("plus point 3 4 6"),
// above one tenth precision is used ("minus 1 point 2").
func SpeakSignedDelta(delta float64) string {
	prefix := "plus"
	if delta < 0 {
		prefix = "minus"
	}
	d := decimal.NewFromFloat(delta).Abs()
	if d.Round(3).GreaterThanOrEqual(one) {
		whole, tenth := splitTenth(d)
		return fmt.Sprintf("%s %d point %d", prefix, whole, tenth)
	}
	ms := d.Mul(thousand).Round(0).IntPart()
	digits := fmt.Sprintf("%03d", ms)
	return prefix + " point " + strings.Join(strings.Split(digits, ""), " ")
}

// SpeakSectorTime formats a sector time with tenth precision, e.g. "28 point 4".
func SpeakSectorTime(secs float64) string {
	whole, tenth := splitTenth(decimal.NewFromFloat(secs).Abs())
	return fmt.Sprintf("%d point %d", whole, tenth)
}

func splitMillis(d decimal.Decimal) (whole, ms int64) {
	w := d.Floor()
	return w.IntPart(), d.Sub(w).Mul(thousand).Round(0).IntPart()
}

func splitTenth(d decimal.Decimal) (whole, tenth int64) {
	r := d.Round(1)
	w := r.Floor()
	return w.IntPart(), r.Sub(w).Shift(1).IntPart()
}
