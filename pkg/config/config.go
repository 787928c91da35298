package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mpapenbr/racecoach/pkg/processing"
	"github.com/mpapenbr/racecoach/pkg/scheduler"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string  // sets the log level (zap log level values)
	LogFormat         string  // text vs json
	LogFilter         string  // zapfilter rules, e.g. "info+:* debug+:scheduler"
	EnableTelemetry   bool    // enable telemetry
	TelemetryEndpoint string  // endpoint for telemetry
	Source            string  // file with telemetry samples, "-" for stdin
	ReplaySpeed       float64 // pace samples by session time, 0 means as fast as possible
	SpeechCommand     string  // external TTS program, empty logs the messages
	SpeechArgs        string  // additional arguments of the TTS program
	SpeechTimeout     string  // max duration of a single message
	NatsURL           string  // NATS server, empty disables publishing
	NatsBucket        string  // JetStream KV bucket for reports and reference laps
	WaitForServices   string  // max duration to wait for the NATS server
	SessionID         string  // id of the session, generated if empty
	PhraseSeed        int64   // seed for phrase selection, 0 means random
)

// CoachConfig holds every tuning value of the coaching pipeline.
// It is read from the "coach" section of the config file.
type CoachConfig struct {
	Processing processing.Config `mapstructure:",squash"`
	Scheduler  scheduler.Config  `mapstructure:"scheduler"`
}

func DefaultCoachConfig() CoachConfig {
	return CoachConfig{
		Processing: processing.DefaultConfig(),
		Scheduler:  scheduler.DefaultConfig(),
	}
}

// LoadCoachConfig overlays the defaults with the values of the "coach"
// section. Missing keys keep their default.
func LoadCoachConfig(v *viper.Viper) (CoachConfig, error) {
	ret := DefaultCoachConfig()
	if v == nil || !v.IsSet("coach") {
		return ret, nil
	}
	if err := v.UnmarshalKey("coach", &ret); err != nil {
		return ret, fmt.Errorf("coach config: %w", err)
	}
	return ret, nil
}
