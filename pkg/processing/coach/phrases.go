package coach

import (
	"math/rand/v2"
	"strings"
)

// phrase keys used by the coach, event kinds are used as keys as well
const (
	keyIntro            = "intro"
	keyFormationLap     = "formation_lap"
	keyLapStartNoRef    = "lap_start_no_ref"
	keyLapStartWithRef  = "lap_start_with_ref"
	keyBaselineSet      = "baseline_set"
	keyPurpleLap        = "purple_lap"
	keyLapClose         = "lap_close"
	keyLapOk            = "lap_ok"
	keyLapSlow          = "lap_slow"
	keyBrakeWarning     = "brake_warning"
	keyBrakeNow         = "brake_now"
	keyBrakeWithGear    = "brake_with_gear"
	keyDownshift        = "downshift"
	keyGetOnPower       = "get_on_power"
	keyCarryMoreSpeed   = "carry_more_speed"
	keyGoodSpeed        = "good_speed"
	keyDeltaPlus        = "delta_plus"
	keyDeltaMinus       = "delta_minus"
	keySectorPurple     = "sector_purple"
	keySectorGreen      = "sector_green"
	keySectorYellow     = "sector_yellow"
	keySectorTime       = "sector_time"
	keyLapTime          = "lap_time"
	keyCornerBrakeLater = "corner_brake_later"
	keyCornerGoodBrake  = "corner_good_brake"
	keyCornerCarrySpeed = "corner_carry_speed"
	keyCornerGoodSpeed  = "corner_good_speed"
	keyCornerEarlierGas = "corner_earlier_throttle"
	keyCornerGoodExit   = "corner_good_exit"
	keyCornerGood       = "corner_good"
	keySessionEnd       = "session_end"
)

//nolint:lll,gochecknoglobals // phrase bank
var defaultBank = map[string][]string{
	keyIntro: {
		"Coach online. Put in a clean lap and I'll start coaching you from there.",
		"Ready when you are. Give me a clean lap for the baseline.",
	},
	keyFormationLap: {
		"Telemetry is live. Formation lap, bring the tyres in.",
		"I can see you. Out lap, easy on the inputs.",
		"Connected. Warm things up, no need to push yet.",
	},
	keyLapStartNoRef: {
		"Lap {lap}. Push, this one sets the reference.",
		"Lap {lap}. Give me a clean one for the baseline.",
		"Lap {lap}. Let's see what you've got.",
	},
	keyLapStartWithRef: {
		"Lap {lap}. Let's go.",
		"Lap {lap}. Target is {target}.",
		"Lap {lap}. Stay sharp.",
	},
	keyBaselineSet: {
		"Good one. {time}. That's the baseline, now beat it.",
		"{time}. Baseline is in, let's improve on it.",
		"{time}. Solid reference. I'll guide you from here.",
	},
	keyPurpleLap: {
		"Purple! {time}. {delta} faster, new reference.",
		"Fastest lap. {time}. You found {delta}.",
		"Great lap, {time}, {delta} quicker.",
	},
	keyLapClose: {
		"{time}. Only {delta} off, the pace is there.",
		"{time}. Within {delta}. Keep at it.",
		"{time}. Just {delta} down.",
	},
	keyLapOk: {
		"{time}. Plus {delta}. Time on the table.",
		"{time}. Lost {delta} there.",
		"{time}. {delta} off the pace.",
	},
	keyLapSlow: {
		"{time}. {delta} down. Tidy it up.",
		"{time}. {delta} off. Reset and go again.",
		"{time}. Lost {delta}. Focus on the next one.",
	},
	keyLapTime: {"Lap {lap}, {time}"},

	"lap_invalidated": {"Lap invalid.", "That lap won't count.", "Lap deleted."},

	"crash_heavy":   {"Big impact. Check your damage.", "That was a heavy one.", "Into the barrier. Shake it off."},
	"crash_light":   {"Small contact.", "Light touch there.", "Bit of a tap."},
	"collision_car": {"Contact with another car.", "Car contact."},

	"damage_front_wing_light": {"Minor front wing damage.", "Front wing took a hit."},
	"damage_front_wing_heavy": {"Heavy front wing damage. Careful in the corners.", "Front wing is badly damaged."},
	"damage_rear_wing":        {"Rear wing damage."},
	"damage_floor":            {"Floor damage. You'll feel it in the corners."},

	"penalty_warning":        {"That's a warning. Keep it clean.", "Warning from race control."},
	"penalty_corner_cutting": {"Track limits warning.", "Corner cutting warning."},
	"penalty_time":           {"{seconds} second penalty."},

	keyBrakeWarning:   {"Braking soon", "Big stop coming"},
	keyBrakeNow:       {"Brake", "Brake now"},
	keyBrakeWithGear:  {"Brake, {gear}", "Brake, down to {gear}"},
	keyDownshift:      {"Down to {gear}", "{gear}"},
	keyGetOnPower:     {"Power", "Throttle"},
	keyCarryMoreSpeed: {"More speed here", "Carry more speed"},
	keyGoodSpeed:      {"Good speed", "Nice"},

	keyDeltaPlus:  {"{delta}", "{delta} on the lap"},
	keyDeltaMinus: {"{delta}", "{delta}, keep it going"},

	keySectorPurple: {"Sector {sector} purple, {time}", "Purple sector {sector}, {time}"},
	keySectorGreen:  {"Sector {sector} green, {time}", "Good sector {sector}, {time}"},
	keySectorYellow: {"Sector {sector}, {delta}"},
	keySectorTime:   {"Sector {sector}, {time}"},

	keyCornerBrakeLater: {"Turn {turn}, brake later"},
	keyCornerGoodBrake:  {"Turn {turn}, good late brake"},
	keyCornerCarrySpeed: {"Turn {turn}, carry more speed"},
	keyCornerGoodSpeed:  {"Turn {turn}, good speed"},
	keyCornerEarlierGas: {"Turn {turn}, earlier throttle"},
	keyCornerGoodExit:   {"Turn {turn}, good drive out"},
	keyCornerGood:       {"Good turn {turn}"},

	keySessionEnd: {"Good session. See you next time.", "Session complete. Nice work."},
}

// Phrases picks a random phrase per key. The same phrase is never chosen
// twice in a row for a key with more than one phrase.
type Phrases struct {
	bank map[string][]string
	last map[string]int
	rnd  *rand.Rand
}

func NewPhrases(seed uint64) *Phrases {
	return &Phrases{
		bank: defaultBank,
		last: map[string]int{},
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Say returns a phrase for key with the placeholders replaced. args are
// name/value pairs, e.g. Say("lap_time", "lap", "3", "time", "...").
// Unknown keys are returned as is.
func (p *Phrases) Say(key string, args ...string) string {
	candidates, ok := p.bank[key]
	if !ok || len(candidates) == 0 {
		return key
	}
	idx := 0
	if n := len(candidates); n > 1 {
		last, seen := p.last[key]
		if seen {
			idx = p.rnd.IntN(n - 1)
			if idx >= last {
				idx++
			}
		} else {
			idx = p.rnd.IntN(n)
		}
	}
	p.last[key] = idx
	return expand(candidates[idx], args)
}

func expand(text string, args []string) string {
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
