package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/cmd/util"
	"github.com/mpapenbr/racecoach/pkg/config"
	"github.com/mpapenbr/racecoach/pkg/model"
	"github.com/mpapenbr/racecoach/pkg/processing"
	natspublish "github.com/mpapenbr/racecoach/pkg/publish/nats"
	"github.com/mpapenbr/racecoach/pkg/scheduler"
	"github.com/mpapenbr/racecoach/pkg/source/jsonl"
	"github.com/mpapenbr/racecoach/pkg/speech"
	"github.com/mpapenbr/racecoach/pkg/state"
	"github.com/mpapenbr/racecoach/pkg/utils"
	"github.com/mpapenbr/racecoach/pkg/utils/broadcast"
)

var follow bool

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "coach a session from recorded or live telemetry",
		Long: `Reads telemetry samples as JSON lines and speaks coaching cues.
Use "-" as source to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&config.Source,
		"source",
		jsonl.Stdin,
		"file with telemetry samples (JSON lines)")
	cmd.Flags().Float64Var(&config.ReplaySpeed,
		"speed",
		0,
		"replay speed relative to the recording, 0 means as fast as possible")
	cmd.Flags().BoolVar(&follow,
		"follow",
		false,
		"keep reading data appended to the source file")
	cmd.Flags().StringVar(&config.SpeechCommand,
		"tts-command",
		"",
		"external text to speech program, the text is passed as last argument")
	cmd.Flags().StringVar(&config.SpeechArgs,
		"tts-args",
		"",
		"additional arguments for the text to speech program")
	cmd.Flags().StringVar(&config.SpeechTimeout,
		"tts-timeout",
		"10s",
		"max duration of a single message")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"publish state and reports to this NATS server")
	cmd.Flags().StringVar(&config.NatsBucket,
		"nats-bucket",
		"rcoach",
		"JetStream key value bucket for reports and reference laps, empty disables")
	cmd.Flags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for the NATS server to be ready")
	cmd.Flags().StringVar(&config.SessionID,
		"session-id",
		"",
		"id of the session (default: random uuid)")
	cmd.Flags().Int64Var(&config.PhraseSeed,
		"phrase-seed",
		0,
		"seed for phrase selection, 0 means random")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use \"stdout\" to print)")
	return cmd
}

type pipeline struct {
	session   string
	reader    *jsonl.Reader
	proc      *processing.Processor
	queue     *scheduler.Queue
	worker    *speech.Worker
	bcst      broadcast.Server[model.Snapshot]
	publisher *natspublish.Publisher
	conn      *nats.Conn

	snapshots  chan model.Snapshot
	reports    chan model.SessionReport
	references chan model.ReferenceLap
}

//nolint:funlen // wiring
func runSession(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	if config.EnableTelemetry {
		logger.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(parent); err == nil {
			defer telemetry.Shutdown()
		} else {
			logger.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			logger.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, logger)
	if err != nil {
		return err
	}
	defer p.close()
	logger.Info("Starting session",
		log.String("session", p.session),
		log.String("source", config.Source))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.ingest(gctx, logger)
	})
	g.Go(func() error {
		return p.worker.Run(gctx)
	})
	g.Go(func() error {
		return p.watchLaps(logger.Named("status"))
	})
	if p.publisher != nil {
		sub := p.bcst.Subscribe()
		g.Go(func() error {
			return p.publisher.Run(gctx, sub, p.reports, p.references)
		})
	}
	err = g.Wait()
	logger.Info("Session ended", log.String("session", p.session))
	return err
}

//nolint:funlen // wiring
func newPipeline(ctx context.Context, logger *log.Logger) (*pipeline, error) {
	cfg, err := config.LoadCoachConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	ret := &pipeline{
		session:    config.SessionID,
		snapshots:  make(chan model.Snapshot, 1),
		reports:    make(chan model.SessionReport, 4),
		references: make(chan model.ReferenceLap, 2),
	}
	if ret.session == "" {
		ret.session = uuid.NewString()
	}

	if ret.reader, err = jsonl.Open(config.Source,
		jsonl.WithSpeed(config.ReplaySpeed),
		jsonl.WithFollow(follow),
		jsonl.WithLogger(logger.Named("source"))); err != nil {
		return nil, err
	}

	renderer, err := newRenderer(logger)
	if err != nil {
		ret.close()
		return nil, err
	}
	timeout, err := time.ParseDuration(config.SpeechTimeout)
	if err != nil {
		ret.close()
		return nil, fmt.Errorf("tts-timeout: %w", err)
	}

	store := state.NewStore(ret.session)
	ret.queue = scheduler.NewQueue(
		scheduler.WithConfig(cfg.Scheduler),
		scheduler.WithLogger(logger.Named("scheduler")))
	ret.worker = speech.NewWorker(ret.queue, store,
		speech.WithRenderer(renderer),
		speech.WithTimeout(timeout),
		speech.WithLogger(logger.Named("speech")))

	opts := []processing.ProcessorOption{
		processing.WithConfig(cfg.Processing),
		processing.WithLogger(logger.Named("processing")),
		processing.WithQueue(ret.queue),
		processing.WithStore(store),
		processing.WithSnapshots(ret.snapshots),
	}
	if config.PhraseSeed != 0 {
		opts = append(opts, processing.WithPhraseSeed(uint64(config.PhraseSeed)))
	}
	ret.bcst = broadcast.NewServer("snapshots", ret.snapshots,
		broadcast.WithTelemetry[model.Snapshot](ret.session),
		broadcast.WithLogger[model.Snapshot](logger.Named("broadcast")))

	if config.NatsURL != "" {
		if err := waitForNats(ctx); err != nil {
			ret.close()
			return nil, err
		}
		if ret.conn, err = nats.Connect(config.NatsURL, nats.Name("rcoach")); err != nil {
			ret.close()
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		if ret.publisher, err = natspublish.NewPublisher(ret.conn, ret.session,
			natspublish.WithContext(ctx),
			natspublish.WithBucket(config.NatsBucket),
			natspublish.WithLogger(logger.Named("publish.nats"))); err != nil {
			ret.close()
			return nil, err
		}
		opts = append(opts,
			processing.WithReports(ret.reports),
			processing.WithReferences(ret.references))
	}
	ret.proc = processing.NewProcessor(opts...)
	return ret, nil
}

func waitForNats(ctx context.Context) error {
	addr := utils.ExtractFromNatsURL(config.NatsURL)
	if addr == "" {
		return nil
	}
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 15s", log.ErrorField(err))
		timeout = 15 * time.Second
	}
	return utils.WaitForTCP(ctx, addr, timeout)
}

func newRenderer(logger *log.Logger) (speech.Renderer, error) {
	if config.SpeechCommand == "" {
		return speech.NewLogRenderer(logger.Named("speech")), nil
	}
	return speech.NewCommandRenderer(config.SpeechCommand, strings.Fields(config.SpeechArgs)...)
}

// ingest feeds the processor until the source is exhausted or ctx is done.
// The session is finished in both cases and the speech worker may drain the
// remaining messages.
func (p *pipeline) ingest(ctx context.Context, logger *log.Logger) error {
	defer func() {
		p.proc.Finish()
		close(p.snapshots)
		close(p.reports)
		close(p.references)
		p.worker.Stop()
	}()
	for {
		rec, err := p.reader.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			logger.Info("source exhausted", log.Int("malformed", p.reader.Malformed()))
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}
		if rec.Sample != nil {
			p.proc.ProcessSample(*rec.Sample)
		}
		if rec.Event != nil {
			p.proc.ProcessEvent(*rec.Event)
		}
	}
}

// watchLaps logs every lap change seen on the snapshot stream
func (p *pipeline) watchLaps(logger *log.Logger) error {
	sub := p.bcst.Subscribe()
	lastLap := -1
	for snap := range sub {
		if snap.LapNo == lastLap {
			continue
		}
		lastLap = snap.LapNo
		fields := []log.Field{log.Int("lap", snap.LapNo)}
		if snap.Fastest != nil {
			fields = append(fields, log.Float64("fastest", snap.Fastest.LapTime))
		}
		logger.Info("lap", fields...)
	}
	return nil
}

func (p *pipeline) close() {
	if p.reader != nil {
		p.reader.Close()
	}
	if p.bcst != nil {
		p.bcst.Close()
	}
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}
