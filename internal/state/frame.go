package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownFrame   = errors.New("unknown frame type")
	ErrUnknownCommand = errors.New("unknown command")
)

// FrameTypeState is the only server to client frame type.
const FrameTypeState = "state"

type serverFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type commandFrame struct {
	Cmd string `json:"cmd"`
}

// EncodeStateFrame renders {"type":"state","data":{...}}.
// A missing cover is encoded as null.
func EncodeStateFrame(s PlayerState) ([]byte, error) {
	if len(s.Cover) == 0 {
		s.Cover = nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return json.Marshal(serverFrame{Type: FrameTypeState, Data: data})
}

// DecodeServerFrame parses a server frame. Frames that are not valid JSON or
// whose payload does not decode return ErrMalformedFrame; well-formed frames
// of another type return ErrUnknownFrame.
func DecodeServerFrame(raw []byte) (PlayerState, error) {
	var f serverFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return PlayerState{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type != FrameTypeState {
		return PlayerState{}, fmt.Errorf("%w: %q", ErrUnknownFrame, f.Type)
	}
	if len(f.Data) == 0 || string(f.Data) == "null" {
		return PlayerState{}, fmt.Errorf("%w: missing data", ErrMalformedFrame)
	}
	var s PlayerState
	if err := json.Unmarshal(f.Data, &s); err != nil {
		return PlayerState{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return s, nil
}

// EncodeCommand renders {"cmd":"..."}.
func EncodeCommand(c Command) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(c))
	}
	return json.Marshal(commandFrame{Cmd: string(c)})
}

// DecodeCommand parses a client frame.
func DecodeCommand(raw []byte) (Command, error) {
	var f commandFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return ParseCommand(f.Cmd)
}
