// Package analytics computes cross lap statistics: corner metrics, corner
// mastery, consistency, a driver profile, skill scores and session reports.
package analytics

import (
	"time"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

// lapRecord keeps what is needed of a valid lap after the lap itself is gone.
type lapRecord struct {
	lapNo   int
	lapTime float64
	sectors [3]float64
	corners map[int]model.CornerMetric // empty after a reference change
	inputs  inputStats
}

// Result bundles everything Compute derives from the stored history.
type Result struct {
	Mastery     map[int]model.CornerMastery
	Consistency model.ConsistencyStats
	Profile     model.DriverProfile
	Skills      model.SkillScores
}

// Analyzer is used by the ingestion path only and not safe for concurrent use.
type Analyzer struct {
	cfg Config
	log *log.Logger

	ref        *model.ReferenceLap
	refMetrics map[int]model.CornerMetric

	laps       []lapRecord // valid laps, oldest first
	seen       map[int]bool
	cornerHist map[int][]model.CornerMetric

	sinceReport int
	lapTimes    []float64 // all valid laps of the session
}

type Option func(a *Analyzer)

func WithConfig(cfg Config) Option {
	return func(a *Analyzer) {
		a.cfg = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	ret := &Analyzer{
		cfg:        DefaultConfig(),
		refMetrics: map[int]model.CornerMetric{},
		seen:       map[int]bool{},
		cornerHist: map[int][]model.CornerMetric{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("analytics")
	}
	return ret
}

// ResetCorners switches to a new reference lap. Corner numbers of the old
// reference are meaningless afterwards, so all corner keyed history is dropped.
func (a *Analyzer) ResetCorners(ref *model.ReferenceLap) {
	a.ref = ref
	a.refMetrics = map[int]model.CornerMetric{}
	a.cornerHist = map[int][]model.CornerMetric{}
	for i := range a.laps {
		a.laps[i].corners = nil
	}
	if ref == nil || ref.Lap == nil {
		return
	}
	for i := range ref.Corners {
		c := &ref.Corners[i]
		a.refMetrics[c.Index] = MeasureCorner(a.cfg, ref.Lap, c)
	}
	a.log.Debug("corner history reset", log.Int("corners", len(ref.Corners)))
}

// AddLap records a closed valid lap and returns its corner metrics.
// Adding the same lap number again has no effect and returns false.
func (a *Analyzer) AddLap(lap *model.Lap) ([]model.CornerMetric, bool) {
	if lap == nil || !lap.Valid || a.seen[lap.LapNo] || lap.Check() != nil {
		return nil, false
	}
	a.seen[lap.LapNo] = true

	rec := lapRecord{
		lapNo:   lap.LapNo,
		lapTime: lap.LapTime,
		sectors: lap.Sectors,
		inputs:  measureInputs(lap),
		corners: map[int]model.CornerMetric{},
	}
	metrics := []model.CornerMetric{}
	if a.ref != nil {
		for i := range a.ref.Corners {
			c := &a.ref.Corners[i]
			m := MeasureCorner(a.cfg, lap, c)
			ref := a.refMetrics[c.Index]
			compare(a.cfg, &m, &ref)
			rec.corners[c.Index] = m
			metrics = append(metrics, m)
			a.cornerHist[c.Index] = keepLast(
				append(a.cornerHist[c.Index], m), a.cfg.MasteryWindow)
		}
	}
	a.laps = keepLast(append(a.laps, rec), max(a.cfg.ConsistencyWindow, a.cfg.ProfileWindow))
	a.lapTimes = append(a.lapTimes, lap.LapTime)
	a.sinceReport++
	a.log.Debug("lap added",
		log.Int("lap", lap.LapNo), log.Int("corners", len(metrics)))
	return metrics, true
}

// Laps returns the number of valid laps added so far.
func (a *Analyzer) Laps() int { return len(a.lapTimes) }

// ReportDue is true once every ReportEvery valid laps.
func (a *Analyzer) ReportDue() bool {
	return a.cfg.ReportEvery > 0 && a.sinceReport >= a.cfg.ReportEvery
}

// Compute derives all statistics from the stored history. Calling it twice
// without adding laps yields identical results.
func (a *Analyzer) Compute() Result {
	mastery := a.mastery()
	consistency := a.consistency()
	profile := a.profile()
	return Result{
		Mastery:     mastery,
		Consistency: consistency,
		Profile:     profile,
		Skills:      a.skills(mastery, consistency, profile),
	}
}

// Report assembles a session report. The report counter restarts.
func (a *Analyzer) Report(optimal model.OptimalLap, final bool, now time.Time) model.SessionReport {
	a.sinceReport = 0
	res := a.Compute()
	return buildReport(res, a.lapTimes, optimal, final, now)
}

func keepLast[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
