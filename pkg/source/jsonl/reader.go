// Package jsonl reads recorded telemetry, one JSON object per line.
//
// A line is either a telemetry sample or a session event:
//
//	{"lapDistance": 512.3, "speed": 187.2, "throttle": 1, ...}
//	{"event": "collision_car"}
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

// Stdin as path reads from standard input
const Stdin = "-"

var ErrUnknownEvent = errors.New("unknown event")

var eventKinds = map[string]model.SessionEventKind{
	"collision_car": model.EventCollisionCar,
	"collision_env": model.EventCollisionEnv,
	"session_end":   model.EventSessionEnd,
}

// Record holds either a sample or an event
type Record struct {
	Sample *model.TelemetrySample
	Event  *model.SessionEvent
}

type line struct {
	model.TelemetrySample
	Event string `json:"event"`
}

type Reader struct {
	log    *log.Logger
	in     *bufio.Reader
	closer io.Closer
	speed  float64
	sleep  func(ctx context.Context, d time.Duration) error

	follow  bool
	watcher *fsnotify.Watcher
	pending []byte

	lastTime  float64
	hasTime   bool
	lineNo    int
	malformed int
}

type Option func(r *Reader)

func WithLogger(l *log.Logger) Option {
	return func(r *Reader) {
		r.log = l
	}
}

// WithSpeed paces the samples by their session time. A speed of 2 replays
// twice as fast as recorded, 0 disables pacing.
func WithSpeed(speed float64) Option {
	return func(r *Reader) {
		r.speed = speed
	}
}

// WithFollow keeps reading data appended to the file once the end was
// reached. It has no effect on stdin.
func WithFollow(follow bool) Option {
	return func(r *Reader) {
		r.follow = follow
	}
}

func withSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reader) {
		r.sleep = f
	}
}

func NewReader(in io.Reader, opts ...Option) *Reader {
	ret := &Reader{
		log:   log.Default().Named("source"),
		in:    bufio.NewReaderSize(in, 64*1024),
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Open reads from a file or from stdin if path is Stdin.
func Open(path string, opts ...Option) (*Reader, error) {
	if path == Stdin {
		return NewReader(os.Stdin, opts...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	ret := NewReader(f, opts...)
	ret.closer = f
	if ret.follow {
		if ret.watcher, err = fsnotify.NewWatcher(); err != nil {
			f.Close()
			return nil, fmt.Errorf("watch source: %w", err)
		}
		if err = ret.watcher.Add(path); err != nil {
			ret.watcher.Close()
			f.Close()
			return nil, fmt.Errorf("watch source: %w", err)
		}
	}
	return ret, nil
}

func (r *Reader) Close() error {
	if r.watcher != nil {
		r.watcher.Close()
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Malformed returns the number of skipped lines
func (r *Reader) Malformed() int {
	return r.malformed
}

// Next returns the next record. It returns io.EOF at the end of the input
// and the context error if ctx is done. Malformed lines are logged and
// skipped.
func (r *Reader) Next(ctx context.Context) (Record, error) {
	for {
		data, err := r.readLine(ctx)
		if err != nil {
			return Record{}, err
		}
		r.lineNo++
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			continue
		}
		rec, err := decode(data)
		if err != nil {
			r.malformed++
			r.log.Warn("skipping line",
				log.Int("line", r.lineNo), log.ErrorField(err))
			continue
		}
		if rec.Sample != nil {
			if err := r.pace(ctx, rec.Sample.SessionTime); err != nil {
				return Record{}, err
			}
		}
		return rec, nil
	}
}

func decode(data []byte) (Record, error) {
	var l line
	if err := json.Unmarshal(data, &l); err != nil {
		return Record{}, err
	}
	if l.Event != "" {
		kind, ok := eventKinds[l.Event]
		if !ok {
			return Record{}, fmt.Errorf("%w: %s", ErrUnknownEvent, l.Event)
		}
		return Record{Event: &model.SessionEvent{Kind: kind}}, nil
	}
	s := l.TelemetrySample
	return Record{Sample: &s}, nil
}

// readLine returns a complete line. In follow mode a partial line at the end
// of the file is kept until the rest is written.
func (r *Reader) readLine(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := r.in.ReadBytes('\n')
		r.pending = append(r.pending, chunk...)
		if err == nil {
			ret := r.pending
			r.pending = nil
			return ret, nil
		}
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read source: %w", err)
		}
		if r.watcher == nil {
			if len(r.pending) > 0 {
				ret := r.pending
				r.pending = nil
				return ret, nil
			}
			return nil, io.EOF
		}
		if err := r.waitForWrite(ctx); err != nil {
			return nil, err
		}
	}
}

func (r *Reader) waitForWrite(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-r.watcher.Events:
			if !ok {
				return io.EOF
			}
			if event.Has(fsnotify.Write) {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				r.log.Info("source file removed", log.String("file", event.Name))
				return io.EOF
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return io.EOF
			}
			r.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// pace waits for the session time difference to the previous sample.
// A session time going backwards starts a new timeline.
func (r *Reader) pace(ctx context.Context, t float64) error {
	defer func() {
		r.lastTime = t
		r.hasTime = true
	}()
	if r.speed <= 0 || !r.hasTime {
		return nil
	}
	delta := t - r.lastTime
	if delta <= 0 {
		return nil
	}
	wait := time.Duration(delta / r.speed * float64(time.Second))
	return r.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
