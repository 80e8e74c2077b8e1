package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"nowcast/internal/state"
)

// AppleScriptProvider drives Music and Spotify through osascript.
type AppleScriptProvider struct {
	run    runner
	art    *artFetcher
	logger *slog.Logger

	// Music artwork has no URL; it is exported to artPath once per track.
	artPath string

	mu            sync.Mutex
	currentPlayer string
	artKey        string
	artData       []byte
}

func NewAppleScriptProvider() *AppleScriptProvider {
	return &AppleScriptProvider{
		run:     execRunner,
		art:     newArtFetcher(),
		logger:  slog.Default(),
		artPath: filepath.Join(os.TempDir(), "nowcast-artwork"),
	}
}

// Supported players in priority order.
var applePlayers = []string{"Music", "Spotify"}

func (a *AppleScriptProvider) osascript(ctx context.Context, script string) (string, error) {
	out, err := a.run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// findActivePlayer checks each supported application for a non-stopped player
func (a *AppleScriptProvider) findActivePlayer(ctx context.Context) (string, error) {
	for _, player := range applePlayers {
		script := fmt.Sprintf(`
			tell application "System Events"
				if exists (process "%s") then
					tell application "%s"
						if player state is not stopped then
							return "true"
						end if
					end tell
				end if
				return "false"
			end tell`, player, player)

		result, err := a.osascript(ctx, script)
		if err == nil && result == "true" {
			return player, nil
		}
	}
	return "", errNoActivePlayer
}

var errNoActivePlayer = errors.New("no active music player found")

func (a *AppleScriptProvider) QueryCurrent(ctx context.Context) (state.PlayerState, bool, error) {
	player, err := a.findActivePlayer(ctx)
	if errors.Is(err, errNoActivePlayer) {
		return state.PlayerState{}, false, nil
	}
	if err != nil {
		return state.PlayerState{}, false, err
	}
	a.mu.Lock()
	a.currentPlayer = player
	a.mu.Unlock()

	script := fmt.Sprintf(`tell application "%s"
		set t to current track
		return (name of t) & tab & (artist of t) & tab & (player state as string) & tab & (duration of t) & tab & (player position)
	end tell`, player)
	out, err := a.osascript(ctx, script)
	if err != nil {
		return state.PlayerState{}, false, fmt.Errorf("reading %s metadata: %w", player, err)
	}

	parts := strings.Split(out, "\t")
	if len(parts) != 5 {
		return state.PlayerState{}, false, fmt.Errorf("unexpected metadata format: got %d parts, expected 5", len(parts))
	}

	duration, _ := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	// Music reports seconds, Spotify milliseconds
	if player == "Spotify" {
		duration /= 1000
	}
	position, _ := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)

	s := state.PlayerState{
		Track:     strings.TrimSpace(parts[0]),
		Artist:    strings.TrimSpace(parts[1]),
		IsPlaying: strings.TrimSpace(parts[2]) == "playing",
		Duration:  int(duration),
		Position:  int(position),
	}

	cover, err := a.artwork(ctx, player, s.Track+"|"+s.Artist)
	if err != nil {
		a.logger.Debug("artwork unavailable", "player", player, "track", s.Track, "error", err)
	}
	s.Cover = cover
	return s, true, nil
}

func (a *AppleScriptProvider) artwork(ctx context.Context, player, trackKey string) ([]byte, error) {
	if player == "Spotify" {
		artURL, err := a.osascript(ctx, `tell application "Spotify" to return artwork url of current track`)
		if err != nil {
			return nil, err
		}
		return a.art.fetch(ctx, artURL)
	}

	a.mu.Lock()
	if trackKey == a.artKey {
		data := a.artData
		a.mu.Unlock()
		return data, nil
	}
	a.mu.Unlock()

	script := fmt.Sprintf(`tell application "Music"
		if (count of artworks of current track) = 0 then return ""
		set artData to raw data of artwork 1 of current track
	end tell
	set fh to open for access (POSIX file %q) with write permission
	set eof fh to 0
	write artData to fh
	close access fh
	return "ok"`, a.artPath)
	out, err := a.osascript(ctx, script)
	if err != nil {
		return nil, err
	}

	var data []byte
	if out == "ok" {
		if data, err = os.ReadFile(a.artPath); err != nil {
			return nil, fmt.Errorf("failed to read artwork file: %w", err)
		}
	}

	a.mu.Lock()
	a.artKey = trackKey
	a.artData = data
	a.mu.Unlock()
	return data, nil
}

func (a *AppleScriptProvider) Control(ctx context.Context, cmd state.Command) error {
	a.mu.Lock()
	player := a.currentPlayer
	a.mu.Unlock()
	if player == "" {
		var err error
		if player, err = a.findActivePlayer(ctx); err != nil {
			return err
		}
	}

	var verb string
	switch cmd {
	case state.CommandPrev:
		verb = "previous track"
	case state.CommandPlayPause:
		verb = "playpause"
	case state.CommandNext:
		verb = "next track"
	default:
		return fmt.Errorf("%w: %q", state.ErrUnknownCommand, string(cmd))
	}

	_, err := a.osascript(ctx, fmt.Sprintf(`tell application "%s" to %s`, player, verb))
	return err
}
