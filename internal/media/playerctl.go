package media

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"nowcast/internal/state"
)

// Tab separated so titles containing "|" survive.
const playerctlFormat = "{{title}}\t{{artist}}\t{{status}}\t{{mpris:length}}\t{{position}}\t{{mpris:artUrl}}"

// PlayerctlProvider reads MPRIS players through playerctl.
type PlayerctlProvider struct {
	run    runner
	art    *artFetcher
	logger *slog.Logger
}

func NewPlayerctlProvider() *PlayerctlProvider {
	return &PlayerctlProvider{run: execRunner, art: newArtFetcher(), logger: slog.Default()}
}

func (p *PlayerctlProvider) QueryCurrent(ctx context.Context) (state.PlayerState, bool, error) {
	out, err := p.run(ctx, "playerctl", "metadata", "--format", playerctlFormat)
	if err != nil {
		if noPlayer(err) {
			return state.PlayerState{}, false, nil
		}
		return state.PlayerState{}, false, err
	}

	line := strings.TrimRight(string(out), "\r\n")
	if strings.TrimSpace(line) == "" {
		return state.PlayerState{}, false, nil
	}

	parts := strings.Split(line, "\t")
	if len(parts) != 6 {
		return state.PlayerState{}, false, fmt.Errorf("unexpected metadata format: got %d parts, expected 6", len(parts))
	}

	status := strings.TrimSpace(parts[2])
	title := strings.TrimSpace(parts[0])
	if strings.EqualFold(status, "stopped") && title == "" {
		return state.PlayerState{}, false, nil
	}

	s := state.PlayerState{
		Track:     title,
		Artist:    strings.TrimSpace(parts[1]),
		IsPlaying: strings.EqualFold(status, "playing"),
		Duration:  microsToSeconds(parts[3]),
		Position:  microsToSeconds(parts[4]),
	}

	cover, err := p.art.fetch(ctx, strings.TrimSpace(parts[5]))
	if err != nil {
		p.logger.Debug("artwork unavailable", "track", s.Track, "error", err)
	}
	s.Cover = cover
	return s, true, nil
}

func (p *PlayerctlProvider) Control(ctx context.Context, cmd state.Command) error {
	var verb string
	switch cmd {
	case state.CommandPrev:
		verb = "previous"
	case state.CommandPlayPause:
		verb = "play-pause"
	case state.CommandNext:
		verb = "next"
	default:
		return fmt.Errorf("%w: %q", state.ErrUnknownCommand, string(cmd))
	}
	if _, err := p.run(ctx, "playerctl", verb); err != nil {
		return fmt.Errorf("playerctl %s failed: %w", verb, err)
	}
	return nil
}

func noPlayer(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "No players found") ||
		strings.Contains(msg, "No player could handle this command")
}

// microsToSeconds parses an MPRIS microsecond value; blanks parse as 0.
func microsToSeconds(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int(n / 1e6)
}
