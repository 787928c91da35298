package speech

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

// Source provides the next message to speak, see scheduler.Queue
type Source interface {
	Next(
		ctx context.Context,
		distance func() float64,
		timeout time.Duration,
	) (model.CoachingMessage, bool)
}

// Sink receives the current distance and records spoken messages,
// see state.Store
type Sink interface {
	Distance() float64
	Spoken(text string, at time.Time)
}

type Worker struct {
	source   Source
	sink     Sink
	renderer Renderer
	log      *log.Logger
	wait     time.Duration
	timeout  time.Duration
	now      func() time.Time
	stopping atomic.Bool
}

type Option func(w *Worker)

func WithRenderer(r Renderer) Option {
	return func(w *Worker) {
		w.renderer = r
	}
}

func WithLogger(l *log.Logger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// WithTimeout limits the time a single message may take to render
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.timeout = d
	}
}

func NewWorker(source Source, sink Sink, opts ...Option) *Worker {
	ret := &Worker{
		source:  source,
		sink:    sink,
		wait:    100 * time.Millisecond,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("speech")
	}
	if ret.renderer == nil {
		ret.renderer = NewLogRenderer(ret.log)
	}
	return ret
}

// Stop lets Run return as soon as no message is pending.
func (w *Worker) Stop() {
	w.stopping.Store(true)
}

// Run renders messages one at a time until ctx is done or the worker was
// stopped and the source is drained. Render errors are logged and never stop
// the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("speech worker started", log.String("renderer", w.renderer.Name()))
	defer w.log.Info("speech worker stopped")
	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, ok := w.source.Next(ctx, w.sink.Distance, w.wait)
		if !ok {
			if w.stopping.Load() {
				return nil
			}
			continue
		}
		w.render(ctx, &msg)
	}
}

func (w *Worker) render(ctx context.Context, msg *model.CoachingMessage) {
	rctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	start := w.now()
	if err := w.renderer.Render(rctx, msg.Text); err != nil {
		w.log.Warn("could not render message",
			log.String("text", msg.Text),
			log.ErrorField(err))
		return
	}
	w.sink.Spoken(msg.Text, start)
	w.log.Debug("message spoken",
		log.String("text", msg.Text),
		log.String("priority", msg.Priority.String()),
		log.Duration("took", w.now().Sub(start)))
}
