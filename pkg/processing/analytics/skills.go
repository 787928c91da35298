package analytics

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/racecoach/pkg/model"
)

// skills derives the five skill scores. Without any valid lap all scores are 0.
//
//nolint:whitespace // can't make both editor and linter happy
func (a *Analyzer) skills(
	mastery map[int]model.CornerMastery,
	consistency model.ConsistencyStats,
	profile model.DriverProfile,
) model.SkillScores {
	if consistency.Laps == 0 {
		return model.SkillScores{}
	}
	turns := lo.Keys(mastery)
	slices.Sort(turns)
	brakeDev := mean(lo.Map(turns, func(t int, _ int) float64 {
		return math.Abs(mastery[t].MeanBrakeDelta)
	}))

	// recent corner metrics, ordered by turn and lap
	recent := []model.CornerMetric{}
	for _, t := range turns {
		recent = append(recent, a.cornerHist[t]...)
	}
	exitDelta := mean(lo.Map(recent, func(m model.CornerMetric, _ int) float64 {
		return math.Min(0, m.ExitSpeedDelta)
	}))
	apexOffset := mean(lo.Map(recent, func(m model.CornerMetric, _ int) float64 {
		return math.Abs(m.ApexDistDelta)
	}))

	return model.SkillScores{
		BrakingPrecision:   clampScore(100 - 2*consistency.MeanBrakeStd - 2*brakeDev),
		ThrottleSmoothness: clampScore(100 - 25*profile.ThrottleJerk),
		CornerExit:         clampScore(100 + 4*exitDelta),
		Consistency:        consistency.OverallScore,
		LineAdherence:      clampScore(100 - 1.5*apexOffset),
	}
}
