package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/racecoach/pkg/model"
)

const (
	maxWorstCorners = 3
	maxFocus        = 3
)

var focusByCause = map[model.CornerCause]string{
	model.CauseBrakeEarlier:    "brake a little earlier",
	model.CauseExitSpeedLow:    "get a better exit",
	model.CauseOverSlowedApex:  "carry more apex speed",
	model.CauseCarryEntrySpeed: "carry more entry speed",
	model.CauseThrottleLate:    "get on the throttle earlier",
	model.CauseClean:           "find time",
}

//nolint:whitespace // can't make both editor and linter happy
func buildReport(
	res Result,
	lapTimes []float64,
	optimal model.OptimalLap,
	final bool,
	now time.Time,
) model.SessionReport {
	ret := model.SessionReport{
		GeneratedAt:   now,
		LapsAnalyzed:  len(lapTimes),
		Final:         final,
		WorstCorners:  worstCorners(res.Mastery),
		ProfileTags:   res.Profile.Tags,
		Skills:        res.Skills,
		Consistency:   res.Consistency,
		Optimal:       optimal,
		PracticeFocus: []string{},
	}
	if len(lapTimes) >= 2 {
		half := len(lapTimes) / 2
		ret.Improvement = mean(lapTimes[:half]) - mean(lapTimes[len(lapTimes)-half:])
	}

	improved := lo.Filter(lo.Values(res.Mastery), func(m model.CornerMastery, _ int) bool {
		return m.Improvement > 0
	})
	if len(improved) > 0 {
		best := lo.MaxBy(improved, func(a, b model.CornerMastery) bool {
			return a.Improvement > b.Improvement ||
				a.Improvement == b.Improvement && a.Turn < b.Turn
		})
		ret.MostImproved = &model.CornerLoss{
			Turn: best.Turn, MeanDelta: best.MeanDelta, Cause: best.DominantCause,
		}
	}

	named := res.Skills.Named()
	if res.Consistency.Laps > 0 {
		top := lo.MaxBy(named, func(a, b model.NamedScore) bool { return a.Score > b.Score })
		ret.BestSkillArea = top.Name
	}

	for _, w := range ret.WorstCorners {
		ret.PracticeFocus = append(ret.PracticeFocus,
			fmt.Sprintf("Turn %d: %s", w.Turn, focusByCause[w.Cause]))
	}
	if len(ret.PracticeFocus) < maxFocus && res.Consistency.Laps > 0 {
		slices.SortStableFunc(named, func(a, b model.NamedScore) int {
			return cmp.Compare(a.Score, b.Score)
		})
		for _, n := range named {
			if len(ret.PracticeFocus) >= maxFocus || n.Score >= 80 {
				break
			}
			ret.PracticeFocus = append(ret.PracticeFocus, "Work on "+n.Name)
		}
	}
	return ret
}

// worstCorners returns the corners with the largest mean loss, worst first.
func worstCorners(mastery map[int]model.CornerMastery) []model.CornerLoss {
	losing := lo.Filter(lo.Values(mastery), func(m model.CornerMastery, _ int) bool {
		return m.MeanDelta > 0
	})
	slices.SortFunc(losing, func(a, b model.CornerMastery) int {
		if c := cmp.Compare(b.MeanDelta, a.MeanDelta); c != 0 {
			return c
		}
		return cmp.Compare(a.Turn, b.Turn)
	})
	losing = losing[:min(len(losing), maxWorstCorners)]
	return lo.Map(losing, func(m model.CornerMastery, _ int) model.CornerLoss {
		return model.CornerLoss{Turn: m.Turn, MeanDelta: m.MeanDelta, Cause: m.DominantCause}
	})
}
