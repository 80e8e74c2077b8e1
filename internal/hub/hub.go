// Package hub relays player states to every connected display and forwards
// display commands to the media provider.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"nowcast/internal/media"
	"nowcast/internal/state"
)

var (
	ErrPeerClosed       = errors.New("peer closed")
	ErrPeerBackpressure = errors.New("peer send queue full")
)

// Peer is one connected display as seen by the hub.
type Peer interface {
	ID() string
	// Send queues a frame without blocking. An error means the peer can no
	// longer be served and must be dropped.
	Send(frame []byte) error
	Close() error
}

// Hub owns the peer set and the last broadcast state. All broadcasts and
// cold-start syncs happen under one lock, so each peer sees frames in the
// order Publish was called and a new peer sees the cached state first.
type Hub struct {
	controller media.Controller
	logger     *slog.Logger

	mu        sync.Mutex
	peers     map[Peer]struct{}
	last      state.PlayerState
	lastFrame []byte
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func New(controller media.Controller, opts ...Option) *Hub {
	h := &Hub{
		controller: controller,
		logger:     slog.Default(),
		peers:      make(map[Peer]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect registers p and, when a state has been broadcast before, sends it
// to p ahead of any later broadcast.
func (h *Hub) Connect(p Peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	var err error
	if h.lastFrame != nil {
		if err = p.Send(h.lastFrame); err != nil {
			delete(h.peers, p)
		}
	}
	n := len(h.peers)
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("cold-start sync failed, dropping peer", "peer", p.ID(), "error", err)
		p.Close()
		return
	}
	h.logger.Info("client connected", "peer", p.ID(), "clients", n)
}

// Disconnect forgets p. Frames still queued for it may never be written.
func (h *Hub) Disconnect(p Peer) {
	h.mu.Lock()
	_, known := h.peers[p]
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()

	if known {
		h.logger.Info("client disconnected", "peer", p.ID(), "clients", n)
	}
}

// Publish records s as the last broadcast state and sends it to every peer.
// A peer whose send fails is removed; the others still get the frame.
func (h *Hub) Publish(s state.PlayerState) {
	frame, err := state.EncodeStateFrame(s)
	if err != nil {
		h.logger.Error("encoding state frame", "error", err)
		return
	}

	type failure struct {
		peer Peer
		err  error
	}
	var failed []failure

	h.mu.Lock()
	h.last = s.Clone()
	h.lastFrame = frame
	for p := range h.peers {
		if err := p.Send(frame); err != nil {
			failed = append(failed, failure{p, err})
		}
	}
	for _, f := range failed {
		delete(h.peers, f.peer)
	}
	h.mu.Unlock()

	for _, f := range failed {
		h.logger.Warn("send failed, dropping peer", "peer", f.peer.ID(), "error", f.err)
		f.peer.Close()
	}
}

// HandleMessage decodes a command frame from p and forwards it to the
// provider. Nothing is reported back to p.
func (h *Hub) HandleMessage(ctx context.Context, p Peer, raw []byte) {
	cmd, err := state.DecodeCommand(raw)
	if err != nil {
		h.logger.Debug("dropping client frame", "peer", p.ID(), "error", err)
		return
	}
	if err := h.controller.Control(ctx, cmd); err != nil {
		h.logger.Warn("command failed", "peer", p.ID(), "cmd", string(cmd), "error", err)
		return
	}
	h.logger.Debug("command forwarded", "peer", p.ID(), "cmd", string(cmd))
}

// Last returns the last broadcast state, if any.
func (h *Hub) Last() (state.PlayerState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastFrame == nil {
		return state.PlayerState{}, false
	}
	return h.last.Clone(), true
}

// Len is the number of connected peers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Close drops and closes every peer. Websocket connections are hijacked, so
// http.Server.Shutdown does not close them.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := make([]Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	clear(h.peers)
	h.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
}
