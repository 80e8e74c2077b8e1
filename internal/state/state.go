// Package state holds the values exchanged between the hub and display
// clients and their JSON wire framing.
package state

import (
	"bytes"
	"fmt"
)

// PlayerState is one snapshot of the active media session.
// Values are replaced wholesale, never patched field by field.
type PlayerState struct {
	Track     string `json:"track"`
	Artist    string `json:"artist"`
	IsPlaying bool   `json:"is_playing"`
	Position  int    `json:"position"` // seconds
	Duration  int    `json:"duration"` // seconds
	Cover     []byte `json:"cover"`    // encoded image, base64 on the wire
}

// Equal reports full structural equality, cover bytes included.
// A nil cover and an empty cover are the same thing: no cover.
func (s PlayerState) Equal(o PlayerState) bool {
	return s.Track == o.Track &&
		s.Artist == o.Artist &&
		s.IsPlaying == o.IsPlaying &&
		s.Position == o.Position &&
		s.Duration == o.Duration &&
		bytes.Equal(s.Cover, o.Cover)
}

// HasCover reports whether the state carries cover art.
func (s PlayerState) HasCover() bool {
	return len(s.Cover) > 0
}

// Clone returns a copy that shares no memory with s.
func (s PlayerState) Clone() PlayerState {
	if s.Cover != nil {
		s.Cover = bytes.Clone(s.Cover)
	}
	return s
}

func (s PlayerState) String() string {
	return fmt.Sprintf("%s - %s (playing=%t %d/%ds cover=%dB)",
		s.Artist, s.Track, s.IsPlaying, s.Position, s.Duration, len(s.Cover))
}

// Command is a transport control issued by a display.
type Command string

const (
	CommandPrev      Command = "prev"
	CommandPlayPause Command = "playpause"
	CommandNext      Command = "next"
)

// Valid reports whether c is one of the known commands.
func (c Command) Valid() bool {
	switch c {
	case CommandPrev, CommandPlayPause, CommandNext:
		return true
	}
	return false
}

// ParseCommand converts a wire name into a Command.
func ParseCommand(name string) (Command, error) {
	c := Command(name)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return c, nil
}
