package media

import (
	"context"
	"fmt"
	"runtime"

	"nowcast/internal/state"
)

// UnsupportedProvider stands in on platforms without a media session
// backend: it never has a session and refuses every command.
type UnsupportedProvider struct{}

func (UnsupportedProvider) QueryCurrent(context.Context) (state.PlayerState, bool, error) {
	return state.PlayerState{}, false, nil
}

func (UnsupportedProvider) Control(_ context.Context, cmd state.Command) error {
	return fmt.Errorf("no media control on %s (command %q)", runtime.GOOS, string(cmd))
}
