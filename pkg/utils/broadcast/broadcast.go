// Package broadcast fans out the values of one channel to many subscribers.
package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/racecoach/log"
)

type Server[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
	// Done is closed once all subscriptions are closed
	Done() <-chan struct{}
}

// server keeps one buffered slot per subscriber. A slow subscriber only
// misses intermediate values, it always gets the latest one.
type server[T any] struct {
	name           string
	session        string
	log            *log.Logger
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListener    atomic.Int64
}

type Option[T any] func(*server[T])

// WithTelemetry adds the session id as attribute to the metrics
func WithTelemetry[T any](session string) Option[T] {
	return func(b *server[T]) {
		b.session = session
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *server[T]) {
		b.log = l
	}
}

//nolint:whitespace // can't make both editor and linter happy
func NewServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &server[T]{
		name:           name,
		log:            log.Default().Named("broadcast"),
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.setupMetrics()
	go b.serve()
	return b
}

// Subscribe returns a closed channel if the server is already closed.
func (b *server[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *server[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *server[T]) Close() {
	b.cancel()
	<-b.done
	b.log.Info("broadcast closed",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
}

func (b *server[T]) Done() <-chan struct{} {
	return b.done
}

func (b *server[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("rcoach.broadcast.%s", b.name))
	type data struct {
		name  string
		desc  string
		value *atomic.Int64
	}
	for _, d := range []data{
		{"rcoach.broadcast.rcv", "Number of received values", &b.numRcv},
		{"rcoach.broadcast.snd", "Number of delivered values", &b.numSnd},
		{"rcoach.broadcast.skip", "Number of replaced values", &b.numSkip},
		{"rcoach.broadcast.listener", "Number of subscribers", &b.numListener},
	} {
		value := d.value
		if _, err := meter.Int64ObservableGauge(
			d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("session", b.session),
					),
				)
				return nil
			})); err != nil {
			b.log.Error("failed to register metric",
				log.String("metric", d.name),
				log.ErrorField(err))
		}
	}
}

func (b *server[T]) serve() {
	defer func() {
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.numListener.Store(0)
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListener.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListener.Store(int64(len(b.listeners)))
		case msg, ok := <-b.source:
			if !ok {
				b.log.Debug("source closed", log.String("name", b.name))
				return
			}
			b.numRcv.Add(1)
			for _, listener := range b.listeners {
				b.deliver(listener, msg)
			}
		}
	}
}

// deliver replaces a value the listener has not picked up yet
func (b *server[T]) deliver(listener chan T, msg T) {
	for {
		select {
		case listener <- msg:
			b.numSnd.Add(1)
			return
		default:
		}
		select {
		case <-listener:
			b.numSkip.Add(1)
		default:
		}
	}
}
