package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/pkg/config"
	"github.com/mpapenbr/racecoach/testsupport/basedata"
)

func writeSession(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, s := range basedata.SampleSession() {
		if err := enc.Encode(s); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.WriteString("{\"event\": \"session_end\"}\n"); err != nil {
		t.Fatal(err)
	}
	return path
}

func withSource(t *testing.T, path string) {
	t.Helper()
	prevSource, prevID, prevTimeout := config.Source, config.SessionID, config.SpeechTimeout
	prevFormat, prevLevel := config.LogFormat, config.LogLevel
	prevLog := log.Default()
	t.Cleanup(func() {
		config.Source, config.SessionID, config.SpeechTimeout = prevSource, prevID, prevTimeout
		config.LogFormat, config.LogLevel = prevFormat, prevLevel
		log.ResetDefault(prevLog)
	})
	config.Source = path
	config.SessionID = "test-session"
	config.SpeechTimeout = "1s"
	config.LogFormat = "json"
	config.LogLevel = "error"
}

func TestIngest(t *testing.T) {
	withSource(t, writeSession(t))
	p, err := newPipeline(context.Background(), log.Default())
	assert.NoError(t, err)
	defer p.close()

	assert.NoError(t, p.ingest(context.Background(), log.Default()))
	snap := p.proc.Store().Snapshot()
	assert.Equal(t, "test-session", snap.SessionID)
	assert.False(t, snap.Active)
	assert.Len(t, snap.Laps, 3)
	if assert.NotNil(t, snap.Fastest) {
		assert.Equal(t, 2, snap.Fastest.LapNo)
	}
	if assert.NotNil(t, snap.Report) {
		assert.True(t, snap.Report.Final)
	}
	// the closing phrase waits for the speech worker
	assert.Positive(t, p.queue.Len())
}

func TestRunSession(t *testing.T) {
	withSource(t, writeSession(t))
	assert.NoError(t, runSession(context.Background()))
}

func TestRunSessionMissingSource(t *testing.T) {
	withSource(t, filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, runSession(context.Background()))
}
