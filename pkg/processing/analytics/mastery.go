package analytics

import (
	"github.com/samber/lo"

	"github.com/mpapenbr/racecoach/pkg/model"
)

// order used to break ties between equally frequent causes
var causePriority = []model.CornerCause{
	model.CauseBrakeEarlier,
	model.CauseExitSpeedLow,
	model.CauseOverSlowedApex,
	model.CauseCarryEntrySpeed,
	model.CauseThrottleLate,
}

func (a *Analyzer) mastery() map[int]model.CornerMastery {
	ret := make(map[int]model.CornerMastery, len(a.cornerHist))
	for turn, hist := range a.cornerHist {
		if len(hist) == 0 {
			continue
		}
		ret[turn] = a.cornerMastery(turn, hist)
	}
	return ret
}

func (a *Analyzer) cornerMastery(turn int, hist []model.CornerMetric) model.CornerMastery {
	deltas := lo.Map(hist, func(m model.CornerMetric, _ int) float64 { return m.TimeDelta })
	brakes := lo.FilterMap(hist, func(m model.CornerMetric, _ int) (float64, bool) {
		return m.BrakeOnsetDelta, m.HasBrakeOnset
	})
	apex := lo.Map(hist, func(m model.CornerMetric, _ int) float64 { return m.ApexSpeedDelta })

	ret := model.CornerMastery{
		Turn:           turn,
		Laps:           len(hist),
		MeanDelta:      mean(deltas),
		StdDelta:       stdDev(deltas),
		MeanBrakeDelta: mean(brakes),
		MeanApexDelta:  mean(apex),
		Trend:          model.TrendStable,
		DominantCause:  dominantCause(hist),
	}
	ret.PaceScore = clampScore(100 - 200*ret.MeanDelta)
	ret.ConsistencyScore = clampScore(100 - 400*ret.StdDelta)
	ret.Score = 0.6*ret.PaceScore + 0.4*ret.ConsistencyScore

	if len(deltas) >= 4 {
		half := len(deltas) / 2
		ret.Improvement = mean(deltas[:half]) - mean(deltas[len(deltas)-half:])
		switch {
		case ret.Improvement > a.cfg.TrendThreshold:
			ret.Trend = model.TrendImproving
		case ret.Improvement < -a.cfg.TrendThreshold:
			ret.Trend = model.TrendDeclining
		}
	}
	return ret
}

func dominantCause(hist []model.CornerMetric) model.CornerCause {
	counts := lo.CountValuesBy(hist, func(m model.CornerMetric) model.CornerCause { return m.Cause })
	ret := model.CauseClean
	best := 0
	for _, c := range causePriority {
		if counts[c] > best {
			ret = c
			best = counts[c]
		}
	}
	return ret
}
