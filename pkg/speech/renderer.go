// Package speech hands queued coaching messages to a renderer.
package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/mpapenbr/racecoach/log"
)

// Renderer turns a text into audio (or anything else). Render must return
// once ctx is done.
type Renderer interface {
	Render(ctx context.Context, text string) error
	Name() string
}

// NopRenderer discards all messages
type NopRenderer struct{}

func (NopRenderer) Render(context.Context, string) error { return nil }
func (NopRenderer) Name() string                         { return "nop" }

// LogRenderer writes the messages to a logger.
type LogRenderer struct {
	log *log.Logger
}

func NewLogRenderer(l *log.Logger) *LogRenderer {
	if l == nil {
		l = log.Default().Named("speech")
	}
	return &LogRenderer{log: l}
}

func (r *LogRenderer) Render(_ context.Context, text string) error {
	r.log.Info("coach says", log.String("text", text))
	return nil
}

func (r *LogRenderer) Name() string { return "log" }

// CommandRenderer runs an external program per message. The text is passed
// as the last argument.
type CommandRenderer struct {
	path string
	args []string
}

// NewCommandRenderer resolves name in PATH. An error is returned if the
// program cannot be found, callers usually fall back to a LogRenderer.
func NewCommandRenderer(name string, args ...string) (*CommandRenderer, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("speech command %q: %w", name, err)
	}
	return &CommandRenderer{path: path, args: args}, nil
}

func (r *CommandRenderer) Render(ctx context.Context, text string) error {
	args := append(append([]string{}, r.args...), text)
	//nolint:gosec // command is configured by the user
	cmd := exec.CommandContext(ctx, r.path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (%s)", r.path, err, out)
	}
	return nil
}

func (r *CommandRenderer) Name() string { return r.path }
