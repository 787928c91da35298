// Package processing runs the per sample pipeline: lap tracking, reference
// comparison, incident detection, coaching rules and analytics.
package processing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing/analytics"
	"github.com/mpapenbr/racecoach/pkg/processing/coach"
	"github.com/mpapenbr/racecoach/pkg/processing/events"
	"github.com/mpapenbr/racecoach/pkg/processing/lap"
	"github.com/mpapenbr/racecoach/pkg/processing/reference"
	"github.com/mpapenbr/racecoach/pkg/processing/segment"
	"github.com/mpapenbr/racecoach/pkg/state"
)

// Config bundles the tuning values of all processing stages.
type Config struct {
	Segment   segment.Config    `mapstructure:"segment"`
	Reference reference.Config  `mapstructure:"reference"`
	Analytics analytics.Config  `mapstructure:"analytics"`
	Events    events.Thresholds `mapstructure:"events"`
	Coach     coach.Config      `mapstructure:"coach"`
}

func DefaultConfig() Config {
	return Config{
		Segment:   segment.DefaultConfig(),
		Reference: reference.DefaultConfig(),
		Analytics: analytics.DefaultConfig(),
		Events:    events.DefaultThresholds(),
		Coach:     coach.DefaultConfig(),
	}
}

// Queue receives the coaching messages, see scheduler.Queue
type Queue interface {
	Enqueue(msg model.CoachingMessage) bool
	Clear()
}

type Processor struct {
	cfg   Config
	log   *log.Logger
	now   func() time.Time
	seed  uint64
	queue Queue
	store *state.Store

	snapshots  chan<- model.Snapshot
	reports    chan<- model.SessionReport
	references chan<- model.ReferenceLap

	tracker   *lap.Tracker
	engine    *reference.Engine
	analyzer  *analytics.Analyzer
	coach     *coach.Coach
	detectors *events.Detectors

	active       bool
	finished     bool
	lastDistance float64
	lastDelta    float64
	lapDeltas    []float64
	cornerMetric []model.CornerMetric
	sectorColors [3]model.SectorColor
	result       analytics.Result // recomputed when the lap history changes

	samples metric.Int64Counter
	laps    metric.Int64Counter
}

type ProcessorOption func(proc *Processor)

func WithConfig(cfg Config) ProcessorOption {
	return func(proc *Processor) {
		proc.cfg = cfg
	}
}

func WithLogger(l *log.Logger) ProcessorOption {
	return func(proc *Processor) {
		proc.log = l
	}
}

func WithQueue(q Queue) ProcessorOption {
	return func(proc *Processor) {
		proc.queue = q
	}
}

func WithStore(s *state.Store) ProcessorOption {
	return func(proc *Processor) {
		proc.store = s
	}
}

// WithSnapshots sets a channel that receives a snapshot after every sample.
// Sending never blocks, snapshots are skipped if the receiver is busy.
func WithSnapshots(ch chan<- model.Snapshot) ProcessorOption {
	return func(proc *Processor) {
		proc.snapshots = ch
	}
}

// WithReports sets a channel that receives every session report.
func WithReports(ch chan<- model.SessionReport) ProcessorOption {
	return func(proc *Processor) {
		proc.reports = ch
	}
}

// WithReferences sets a channel that receives every promoted reference lap.
func WithReferences(ch chan<- model.ReferenceLap) ProcessorOption {
	return func(proc *Processor) {
		proc.references = ch
	}
}

// WithPhraseSeed makes the phrase selection reproducible
func WithPhraseSeed(seed uint64) ProcessorOption {
	return func(proc *Processor) {
		proc.seed = seed
	}
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(proc *Processor) {
		proc.now = now
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		cfg:  DefaultConfig(),
		now:  time.Now,
		seed: uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("processing")
	}
	if ret.queue == nil {
		ret.queue = discard{}
	}
	if ret.store == nil {
		ret.store = state.NewStore("")
	}
	ret.tracker = lap.NewTracker(
		lap.WithSegmenter(segment.NewSegmenter(
			segment.WithConfig(ret.cfg.Segment),
			segment.WithLogger(ret.log.Named("segment")))),
		lap.WithLogger(ret.log.Named("lap")))
	ret.engine = reference.NewEngine(
		reference.WithConfig(ret.cfg.Reference),
		reference.WithLogger(ret.log.Named("reference")))
	ret.analyzer = analytics.NewAnalyzer(
		analytics.WithConfig(ret.cfg.Analytics),
		analytics.WithLogger(ret.log.Named("analytics")))
	ret.coach = coach.NewCoach(
		coach.WithConfig(ret.cfg.Coach),
		coach.WithPhrases(coach.NewPhrases(ret.seed)),
		coach.WithLogger(ret.log.Named("coach")))
	ret.detectors = events.NewDetectors(ret.cfg.Events)
	ret.result = ret.analyzer.Compute()
	ret.setupMetrics()
	return ret
}

func (p *Processor) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("rcoach.processing")
	var err error
	if p.samples, err = meter.Int64Counter("rcoach.processing.samples",
		metric.WithDescription("processed telemetry samples"),
		metric.WithUnit("{sample}")); err != nil {
		p.log.Error("failed to register metric", log.ErrorField(err))
	}
	if p.laps, err = meter.Int64Counter("rcoach.processing.laps",
		metric.WithDescription("closed laps"),
		metric.WithUnit("{lap}")); err != nil {
		p.log.Error("failed to register metric", log.ErrorField(err))
	}
}

// Store returns the state store the processor writes to.
func (p *Processor) Store() *state.Store { return p.store }

// ProcessSample runs the complete pipeline for one sample.
func (p *Processor) ProcessSample(raw model.TelemetrySample) {
	if p.finished {
		return
	}
	s := raw.Clamp()
	if p.samples != nil {
		p.samples.Add(context.Background(), 1)
	}

	evs, ok := p.tracker.Process(s)
	if !ok {
		p.log.Debug("stale sample dropped",
			log.Int("lap", s.LapNo), log.Float64("distance", s.Distance))
		return
	}
	starting := !p.active
	p.active = true
	p.lastDistance = s.Distance
	if lapChanged(evs) {
		// pending cues belong to the previous lap
		p.queue.Clear()
		p.coach.StartLap()
		p.engine.StartLap()
		p.sectorColors = [3]model.SectorColor{}
	}

	p.lastDelta = p.engine.LiveDelta(s.Distance, s.LapTime)

	var msgs []model.CoachingMessage
	if starting {
		msgs = append(msgs, p.coach.SessionStart(s.Distance))
	}
	for i := range evs {
		msgs = append(msgs, p.handleEvent(&evs[i], &s)...)
	}
	// a promotion resets the live profile, so the sample is fed afterwards
	p.engine.UpdateLive(s.Distance, s.LapTime, s.Position)
	for _, det := range p.detectors.Check(&s, p.coach.Cooldowns()) {
		msgs = append(msgs, p.coach.Incident(&det, s.Distance))
	}
	msgs = append(msgs, p.coach.Tick(&s, p.engine)...)
	for _, m := range msgs {
		p.queue.Enqueue(m)
	}
	p.publish(&s)
}

// ProcessEvent handles discrete session events.
func (p *Processor) ProcessEvent(ev model.SessionEvent) {
	if ev.Kind == model.EventSessionEnd {
		p.Finish()
		return
	}
	if det := events.Collision(ev, p.lastDistance, p.coach.Cooldowns()); det != nil {
		p.queue.Enqueue(p.coach.Incident(det, p.lastDistance))
	}
}

// Finish ends the session: the open lap is abandoned, a final report is
// built and the closing phrase is queued. Further samples are ignored.
func (p *Processor) Finish() *model.SessionReport {
	if p.finished {
		return nil
	}
	p.finished = true
	for _, ev := range p.tracker.Abandon() {
		p.log.Debug("open lap abandoned", log.Int("lap", ev.LapNo))
	}
	var ret *model.SessionReport
	if p.analyzer.Laps() > 0 {
		r := p.analyzer.Report(p.engine.Optimal(), true, p.now())
		ret = &r
		p.emitReport(ret)
	}
	if p.active {
		p.queue.Enqueue(p.coach.SessionEnd(p.lastDistance))
	}
	p.store.Update(func(snap *model.Snapshot) {
		snap.Active = false
	})
	p.log.Info("session finished", log.Int("validLaps", p.analyzer.Laps()))
	return ret
}

func lapChanged(evs []lap.Event) bool {
	for i := range evs {
		if evs[i].Kind == lap.EventLapStarted {
			return true
		}
	}
	return false
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) handleEvent(
	ev *lap.Event,
	s *model.TelemetrySample,
) []model.CoachingMessage {
	d := s.Distance
	switch ev.Kind {
	case lap.EventLapStarted:
		return []model.CoachingMessage{p.coach.LapStarted(ev, d)}
	case lap.EventSectorCompleted:
		p.sectorColors[ev.Sector-1] = ev.Class.Color()
		if ev.Sector == 3 {
			// announced with the lap time
			return nil
		}
		return p.coach.Sector(ev, d, p.lastDelta, p.engine.HasReference())
	case lap.EventInvalidated:
		if det := events.Invalidated(d, p.coach.Cooldowns()); det != nil {
			return []model.CoachingMessage{p.coach.Incident(det, d)}
		}
	case lap.EventLapClosed:
		p.lapClosed(ev)
		return p.coach.LapClosed(ev, d)
	}
	return nil
}

func (p *Processor) lapClosed(ev *lap.Event) {
	if p.laps != nil {
		p.laps.Add(context.Background(), 1)
	}
	p.store.Update(func(snap *model.Snapshot) {
		snap.Laps = append(snap.Laps, model.LapEntry{
			LapNo:   ev.LapNo,
			LapTime: ev.Lap.LapTime,
			Result:  ev.Result,
			IsBest:  ev.NewReference != nil,
		})
		if ev.NewReference != nil {
			e := snap.Laps[len(snap.Laps)-1]
			snap.Fastest = &e
		}
	})
	if ev.Result != model.ResultCompletedValid {
		return
	}
	if ev.NewReference != nil {
		p.engine.SetReference(ev.NewReference)
		p.analyzer.ResetCorners(ev.NewReference)
		p.emitReference(ev.NewReference)
	}
	p.engine.RecordLap(ev.Lap)
	p.lapDeltas = p.engine.LapDeltas(ev.Lap)
	if metrics, ok := p.analyzer.AddLap(ev.Lap); ok {
		p.cornerMetric = metrics
	}
	p.result = p.analyzer.Compute()
	if p.analyzer.ReportDue() {
		r := p.analyzer.Report(p.engine.Optimal(), false, p.now())
		p.emitReport(&r)
	}
}

func (p *Processor) emitReport(r *model.SessionReport) {
	p.log.Info("session report",
		log.Int("laps", r.LapsAnalyzed),
		log.Float64("improvement", r.Improvement),
		log.Bool("final", r.Final))
	p.store.Update(func(snap *model.Snapshot) {
		c := r.Clone()
		snap.Report = &c
	})
	if p.reports == nil {
		return
	}
	select {
	case p.reports <- r.Clone():
	default:
		p.log.Warn("report receiver busy, report dropped")
	}
}

func (p *Processor) emitReference(ref *model.ReferenceLap) {
	if p.references == nil {
		return
	}
	select {
	case p.references <- *ref:
	default:
		p.log.Warn("reference receiver busy, reference dropped")
	}
}

func (p *Processor) publish(s *model.TelemetrySample) {
	res := &p.result
	p.store.Update(func(snap *model.Snapshot) {
		snap.Active = true
		snap.LapNo = s.LapNo
		snap.LapTime = s.LapTime
		snap.Distance = s.Distance
		snap.Speed = s.Speed
		snap.Gear = s.Gear
		snap.Sector = s.Sector
		snap.Position = s.Position
		snap.LiveDelta = p.lastDelta
		snap.LapInvalid = p.tracker.Invalid()
		snap.SectorColors = p.sectorColors
		if ref := p.engine.Reference(); ref != nil {
			snap.Corners = ref.Corners
		}
		snap.TrackOutline = p.engine.Outline()
		snap.ReferenceBins = p.engine.ReferenceBins()
		snap.LiveBins = p.engine.LiveBins()
		snap.BinDeltas = p.engine.BinDeltas()
		snap.LastLapDeltas = p.lapDeltas
		snap.CornerMetrics = p.cornerMetric
		snap.Mastery = res.Mastery
		snap.Consistency = res.Consistency
		snap.Profile = res.Profile
		snap.Skills = res.Skills
		snap.Optimal = p.engine.Optimal()
	})
	if p.snapshots == nil {
		return
	}
	select {
	case p.snapshots <- p.store.Snapshot():
	default:
	}
}

type discard struct{}

func (discard) Enqueue(model.CoachingMessage) bool { return false }
func (discard) Clear()                             {}
