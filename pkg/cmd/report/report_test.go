package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := write(&buf, &model.SessionReport{LapsAnalyzed: 4, Final: true})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\n  \"final\": true")
}

func TestArgs(t *testing.T) {
	cmd := NewReportCmd()
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"abc"}))
	assert.Equal(t, "nats://127.0.0.1:4222", cmd.Flags().Lookup("nats-url").DefValue)
}
