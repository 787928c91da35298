package analytics

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/racecoach/pkg/model"
)

func (a *Analyzer) consistency() model.ConsistencyStats {
	laps := keepLast(a.laps, a.cfg.ConsistencyWindow)
	ret := model.ConsistencyStats{
		Laps:          len(laps),
		CornerTimeStd: map[int]float64{},
		BrakePointStd: map[int]float64{},
	}
	if len(laps) == 0 {
		return ret
	}
	times := lo.Map(laps, func(l lapRecord, _ int) float64 { return l.lapTime })
	ret.LapTimeMean = mean(times)
	ret.LapTimeStd = stdDev(times)
	for i := range 3 {
		sector := lo.FilterMap(laps, func(l lapRecord, _ int) (float64, bool) {
			return l.sectors[i], l.sectors[i] > 0
		})
		ret.SectorStd[i] = stdDev(sector)
	}

	elapsed := map[int][]float64{}
	brakes := map[int][]float64{}
	for _, l := range laps {
		for turn, m := range l.corners {
			elapsed[turn] = append(elapsed[turn], m.Elapsed)
			if m.HasBrakeOnset {
				brakes[turn] = append(brakes[turn], m.BrakeOnset)
			}
		}
	}
	for turn, v := range elapsed {
		ret.CornerTimeStd[turn] = stdDev(v)
	}
	for turn, v := range brakes {
		ret.BrakePointStd[turn] = stdDev(v)
	}
	ret.MeanCornerStd = mean(sortedValues(ret.CornerTimeStd))
	ret.MeanBrakeStd = mean(sortedValues(ret.BrakePointStd))
	ret.OverallScore = clampScore(
		100 - 40*ret.LapTimeStd - 100*ret.MeanCornerStd - ret.MeanBrakeStd)
	return ret
}

// sortedValues returns the map values ordered by key, so sums do not depend
// on map iteration order.
func sortedValues(m map[int]float64) []float64 {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return lo.Map(keys, func(k int, _ int) float64 { return m[k] })
}
