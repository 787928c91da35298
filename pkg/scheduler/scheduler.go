// Package scheduler decides which coaching message is spoken next.
package scheduler

import (
	"container/heap"
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

type Config struct {
	MaxPending int           `mapstructure:"maxPending"` // pending items before medium and low are rejected
	MaxAge     time.Duration `mapstructure:"maxAge"`     // older items are never spoken
	Cooldown   time.Duration `mapstructure:"cooldown"`   // min time between two accepted non-forced messages
}

func DefaultConfig() Config {
	return Config{
		MaxPending: 3,
		MaxAge:     3 * time.Second,
		Cooldown:   800 * time.Millisecond,
	}
}

// Queue is a bounded priority queue for coaching messages.
// Enqueue never blocks. It is safe for concurrent use.
type Queue struct {
	cfg Config
	log *log.Logger
	now func() time.Time

	mu           sync.Mutex
	items        msgHeap
	seq          uint64
	lastAccepted time.Time
	notify       chan struct{}

	admitted metric.Int64Counter
	rejected metric.Int64Counter
	dropped  metric.Int64Counter
}

type Option func(q *Queue)

func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		q.cfg = cfg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(q *Queue) {
		q.log = l
	}
}

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

func NewQueue(opts ...Option) *Queue {
	ret := &Queue{
		cfg:    DefaultConfig(),
		now:    time.Now,
		notify: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("scheduler")
	}
	ret.setupMetrics()
	return ret
}

func (q *Queue) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("rcoach.scheduler")
	register := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(desc),
			metric.WithUnit("{message}"))
		if err != nil {
			q.log.Error("failed to register metric",
				log.String("metric", name),
				log.ErrorField(err))
		}
		return c
	}
	q.admitted = register("rcoach.scheduler.admitted", "messages accepted by the queue")
	q.rejected = register("rcoach.scheduler.rejected", "messages rejected on enqueue")
	q.dropped = register("rcoach.scheduler.dropped", "stale messages discarded on dequeue")
}

func (q *Queue) count(c metric.Int64Counter, m *model.CoachingMessage, reason string) {
	if c == nil {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("priority", m.Priority.String()),
		attribute.String("reason", reason),
	))
}

// Enqueue adds msg to the queue and returns false if it was rejected.
// Medium and low priority messages are rejected when the queue is full,
// non-forced messages while the cooldown since the last accepted message
// is still running.
func (q *Queue) Enqueue(msg model.CoachingMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if !msg.Forced && !q.lastAccepted.IsZero() && now.Sub(q.lastAccepted) < q.cfg.Cooldown {
		q.reject(&msg, "cooldown")
		return false
	}
	if len(q.items) >= q.cfg.MaxPending && msg.Priority >= model.PriorityMedium {
		q.reject(&msg, "full")
		return false
	}
	q.seq++
	msg.Seq = q.seq
	msg.EnqueueTime = now
	heap.Push(&q.items, msg)
	q.lastAccepted = now
	q.count(q.admitted, &msg, "")
	q.log.Debug("message queued",
		log.String("text", msg.Text),
		log.String("priority", msg.Priority.String()),
		log.Uint64("seq", msg.Seq),
		log.Int("pending", len(q.items)))

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) reject(msg *model.CoachingMessage, reason string) {
	q.count(q.rejected, msg, reason)
	q.log.Debug("message rejected",
		log.String("text", msg.Text),
		log.String("priority", msg.Priority.String()),
		log.String("reason", reason))
}

// Dequeue returns the most urgent message that is still valid at distance d.
// Stale messages found on the way are discarded.
func (q *Queue) Dequeue(d float64) (model.CoachingMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for q.items.Len() > 0 {
		//nolint:forcetypeassert // by design
		msg := heap.Pop(&q.items).(model.CoachingMessage)
		switch {
		case math.Abs(d-msg.AnchorDistance) > msg.ValidRange:
			q.count(q.dropped, &msg, "distance")
			q.log.Debug("message dropped (distance)",
				log.String("text", msg.Text),
				log.Float64("anchor", msg.AnchorDistance),
				log.Float64("distance", d))
		case now.Sub(msg.EnqueueTime) > q.cfg.MaxAge:
			q.count(q.dropped, &msg, "age")
			q.log.Debug("message dropped (age)",
				log.String("text", msg.Text),
				log.Duration("age", now.Sub(msg.EnqueueTime)))
		default:
			return msg, true
		}
	}
	return model.CoachingMessage{}, false
}

// Next waits up to timeout for a valid message. distance is called to get
// the current lap distance whenever a message is about to be taken.
//
//nolint:whitespace // can't make both editor and linter happy
func (q *Queue) Next(
	ctx context.Context,
	distance func() float64,
	timeout time.Duration,
) (model.CoachingMessage, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if msg, ok := q.Dequeue(distance()); ok {
			return msg, true
		}
		select {
		case <-ctx.Done():
			return model.CoachingMessage{}, false
		case <-timer.C:
			return model.CoachingMessage{}, false
		case <-q.notify:
		}
	}
}

// Clear drops all pending messages, used at lap boundaries.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := len(q.items); n > 0 {
		q.log.Debug("queue cleared", log.Int("dropped", n))
	}
	q.items = nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
