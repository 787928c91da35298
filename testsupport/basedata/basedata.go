// Package basedata provides the sample session used by tests of several
// packages.
package basedata

import (
	"time"

	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/testsupport/lapgen"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// SampleZone is the single braking zone of the sample track (1000m)
func SampleZone() lapgen.Zone {
	return lapgen.Zone{From: 100, To: 180, Brake: 0.6, MinSpeed: 80, Gear: 3}
}

// SampleSession returns an out lap followed by four timed laps.
// Lap 2 (89s) is the fastest valid lap, lap 4 (88s) is invalidated between
// 300m and 400m and is still open at the end.
func SampleSession() []model.TelemetrySample {
	zone := SampleZone()
	return lapgen.Stream(
		lapgen.Lap(lapgen.WithLapNo(0), lapgen.WithZones(zone), lapgen.WithLapTime(95)),
		lapgen.Lap(lapgen.WithLapNo(1), lapgen.WithZones(zone), lapgen.WithLapTime(90)),
		lapgen.Lap(lapgen.WithLapNo(2), lapgen.WithZones(zone), lapgen.WithLapTime(89)),
		lapgen.Lap(lapgen.WithLapNo(3), lapgen.WithZones(zone), lapgen.WithLapTime(91)),
		lapgen.Lap(lapgen.WithLapNo(4), lapgen.WithZones(zone), lapgen.WithLapTime(88),
			lapgen.WithInvalid(300, 400)),
	)
}
