package segment

import "github.com/mpapenbr/racecoach/pkg/model"

// distance after the exit anchor in which a corner counts as just exited
const exitWindow = 80.0

// NextBrakingCorner returns the first braking zone starting after d.
// Past the last zone the first zone of the lap is returned.
func NextBrakingCorner(corners []model.Corner, d float64) *model.Corner {
	var first *model.Corner
	for i := range corners {
		if !corners[i].IsBrakingZone() {
			continue
		}
		if first == nil {
			first = &corners[i]
		}
		if corners[i].Start > d {
			return &corners[i]
		}
	}
	return first
}

// RecentlyExited returns the corner whose exit anchor was passed less than
// exitWindow ago. Corners for which skip returns true are ignored.
//
//nolint:whitespace // can't make both editor and linter happy
func RecentlyExited(
	corners []model.Corner,
	d float64,
	skip func(turn int) bool,
) *model.Corner {
	for i := range corners {
		if skip != nil && skip(corners[i].Index) {
			continue
		}
		past := d - corners[i].Exit
		if past > 0 && past < exitWindow {
			return &corners[i]
		}
	}
	return nil
}

// BrakeWarningDistance returns how far ahead of a braking zone a warning has
// to be issued at the given speed (km/h). 0 if no braking is required.
func BrakeWarningDistance(speed float64, c *model.Corner) float64 {
	if c == nil {
		return 0
	}
	diff := speed - c.ApexSpeed
	if diff <= 0 {
		return 0
	}
	const (
		reaction = 0.2 // seconds
		margin   = 10.0
	)
	return speed/3.6*reaction + margin + diff/150*20
}
