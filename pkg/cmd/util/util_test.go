package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want log.Level
	}{
		{"debug", "debug", log.DebugLevel},
		{"warn", "warn", log.WarnLevel},
		{"invalid uses default", "loud", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.arg, log.InfoLevel))
		})
	}
}

func TestSetupLogger(t *testing.T) {
	prev := log.Default()
	defer log.ResetDefault(prev)
	defer func(format, level, filter string) {
		config.LogFormat, config.LogLevel, config.LogFilter = format, level, filter
	}(config.LogFormat, config.LogLevel, config.LogFilter)

	config.LogFormat = "json"
	config.LogLevel = "warn"
	config.LogFilter = ""
	l, err := SetupLogger()
	assert.NoError(t, err)
	assert.Equal(t, log.WarnLevel, l.Level())
	assert.Same(t, l, log.Default())

	config.LogFilter = "info+:* debug+:scheduler"
	_, err = SetupLogger()
	assert.NoError(t, err)

	config.LogFilter = "scheduler:nonsense"
	_, err = SetupLogger()
	assert.Error(t, err)
}

func TestLogFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := log.New(&buf, log.DebugLevel).Filtered("info+:* debug+:scheduler")
	if !assert.NoError(t, err) {
		return
	}
	l.Named("scheduler").Debug("queue state")
	l.Named("processing").Debug("sample")
	l.Named("processing").Warn("report dropped")

	out := buf.String()
	assert.Contains(t, out, "queue state")
	assert.NotContains(t, out, "sample")
	assert.Contains(t, out, "report dropped")
}
