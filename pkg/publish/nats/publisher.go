// Package nats publishes the session state to NATS subjects and keeps the
// latest report and reference lap in a JetStream key value bucket.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/model"
)

var ErrNotFound = errors.New("no entry for session")

type (
	// Conn is the part of *nats.Conn used for plain publishing
	Conn interface {
		Publish(subject string, data []byte) error
	}

	Publisher struct {
		ctx      context.Context
		conn     Conn
		nc       *nats.Conn
		kv       jetstream.KeyValue
		bucket   string
		session  string
		interval time.Duration
		l        *log.Logger
	}
	Option func(*Publisher)
)

// NewPublisher creates a publisher for a session. If a bucket is configured
// the underlying NATS connection must have JetStream enabled.
func NewPublisher(conn *nats.Conn, session string, opts ...Option) (*Publisher, error) {
	ret := newPublisher(conn, session, opts...)
	ret.nc = conn
	if ret.bucket != "" {
		if err := ret.setupKV(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func newPublisher(conn Conn, session string, opts ...Option) *Publisher {
	ret := &Publisher{
		ctx:      context.Background(),
		conn:     conn,
		session:  session,
		interval: 200 * time.Millisecond,
		l:        log.Default().Named("publish.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithContext(ctx context.Context) Option {
	return func(p *Publisher) {
		p.ctx = ctx
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

// WithBucket stores reports and reference laps in this key value bucket
func WithBucket(bucket string) Option {
	return func(p *Publisher) {
		p.bucket = bucket
	}
}

// WithInterval sets the minimum time between two published snapshots
func WithInterval(d time.Duration) Option {
	return func(p *Publisher) {
		p.interval = d
	}
}

func (p *Publisher) setupKV() error {
	js, err := jetstream.New(p.nc)
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	p.kv, err = js.CreateOrUpdateKeyValue(p.ctx, jetstream.KeyValueConfig{
		Bucket:      p.bucket,
		Description: "racecoach session reports and reference laps",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("key value bucket %s: %w", p.bucket, err)
	}
	return nil
}

func StateSubject(session string) string  { return fmt.Sprintf("rcoach.%s.state", session) }
func ReportSubject(session string) string { return fmt.Sprintf("rcoach.%s.report", session) }
func ReportKey(session string) string     { return fmt.Sprintf("%s.report", session) }
func ReferenceKey(session string) string  { return fmt.Sprintf("%s.reference", session) }

func (p *Publisher) PublishSnapshot(s *model.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.conn.Publish(StateSubject(p.session), data)
}

// PublishReport sends the report and keeps it as the latest one in the bucket
func (p *Publisher) PublishReport(r *model.SessionReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(ReportSubject(p.session), data); err != nil {
		return err
	}
	return p.put(ReportKey(p.session), data)
}

// StoreReference keeps the reference lap including all samples in the bucket
func (p *Publisher) StoreReference(ref *model.ReferenceLap) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return p.put(ReferenceKey(p.session), data)
}

func (p *Publisher) put(key string, data []byte) error {
	if p.kv == nil {
		return nil
	}
	rev, err := p.kv.Put(p.ctx, key, data)
	p.l.Debug("kv put",
		log.String("key", key),
		log.Int("dataLen", len(data)),
		log.Uint64("rev", rev),
		log.ErrorField(err))
	return err
}

// LoadReport reads the latest report stored for a session
func (p *Publisher) LoadReport(ctx context.Context, session string) (*model.SessionReport, error) {
	var ret model.SessionReport
	if err := p.get(ctx, ReportKey(session), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// LoadReference reads the reference lap stored for a session
func (p *Publisher) LoadReference(ctx context.Context, session string) (*model.ReferenceLap, error) {
	var ret model.ReferenceLap
	if err := p.get(ctx, ReferenceKey(session), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (p *Publisher) get(ctx context.Context, key string, target any) error {
	if p.kv == nil {
		return ErrNotFound
	}
	entry, err := p.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(entry.Value(), target)
}

// Run publishes until all input channels are closed or ctx is done.
// Snapshots are rate limited, only the latest one per interval is sent.
// Publish errors are logged, they never stop the loop.
//
//nolint:whitespace,gocognit,cyclop // can't make both editor and linter happy
func (p *Publisher) Run(
	ctx context.Context,
	snapshots <-chan model.Snapshot,
	reports <-chan model.SessionReport,
	references <-chan model.ReferenceLap,
) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	var latest *model.Snapshot
	flush := func() {
		if latest == nil {
			return
		}
		if err := p.PublishSnapshot(latest); err != nil {
			p.l.Warn("could not publish snapshot", log.ErrorField(err))
		}
		latest = nil
	}
	defer flush()
	for snapshots != nil || reports != nil || references != nil {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			latest = &s
		case <-ticker.C:
			flush()
		case r, ok := <-reports:
			if !ok {
				reports = nil
				continue
			}
			if err := p.PublishReport(&r); err != nil {
				p.l.Warn("could not publish report", log.ErrorField(err))
			}
		case ref, ok := <-references:
			if !ok {
				references = nil
				continue
			}
			if err := p.StoreReference(&ref); err != nil {
				p.l.Warn("could not store reference", log.ErrorField(err))
			}
		}
	}
	return nil
}
