// Package media talks to the operating system's media session.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"nowcast/internal/state"
)

// Querier samples the active media session. ok is false when nothing is
// playing; that is not an error.
type Querier interface {
	QueryCurrent(ctx context.Context) (s state.PlayerState, ok bool, err error)
}

// Controller issues transport commands to the active session.
type Controller interface {
	Control(ctx context.Context, cmd state.Command) error
}

// Provider is the source of truth for playback state and control.
type Provider interface {
	Querier
	Controller
}

// runner executes a helper binary and returns its stdout. Errors carry the
// trimmed stderr so callers can recognise "nothing playing" replies.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
