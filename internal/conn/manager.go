// Package conn keeps a display connected to the hub. Network I/O runs on the
// goroutine that calls Run; the display reads states from States and sends
// commands with Send from its own goroutine.
package conn

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"nowcast/internal/state"
)

const (
	DefaultRetryDelay = 2 * time.Second
	writeWait         = 5 * time.Second
)

type Status int32

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Manager owns one logical connection to the hub and redials it forever,
// with a fixed delay, until the context given to Run is done.
type Manager struct {
	url          string
	dialer       *websocket.Dialer
	retryDelay   time.Duration
	pingInterval time.Duration
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error

	live   atomic.Pointer[websocket.Conn]
	status atomic.Int32

	states   chan state.PlayerState
	commands chan state.Command
}

type Option func(*Manager)

func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) { m.retryDelay = d }
}

// WithPingInterval sends keepalive pings while connected. Zero disables them.
func WithPingInterval(d time.Duration) Option {
	return func(m *Manager) { m.pingInterval = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBuffer sizes the inbound state and outbound command queues.
func WithBuffer(n int) Option {
	return func(m *Manager) {
		n = max(n, 1)
		m.states = make(chan state.PlayerState, n)
		m.commands = make(chan state.Command, n)
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

func New(url string, opts ...Option) *Manager {
	m := &Manager{
		url:          url,
		dialer:       websocket.DefaultDialer,
		retryDelay:   DefaultRetryDelay,
		pingInterval: 10 * time.Second,
		logger:       slog.Default(),
		sleep:        sleepContext,
		states:       make(chan state.PlayerState, 16),
		commands:     make(chan state.Command, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status.Store(int32(StatusConnecting))
	return m
}

// States delivers every decoded state frame in arrival order. It is closed
// when Run returns.
func (m *Manager) States() <-chan state.PlayerState {
	return m.states
}

func (m *Manager) Status() Status {
	return Status(m.status.Load())
}

func (m *Manager) Connected() bool {
	return m.live.Load() != nil
}

// Send queues cmd for the current connection without blocking. Commands
// are never kept for a later connection: while disconnected cmd is
// discarded, and anything still queued when a connection ends is dropped.
func (m *Manager) Send(cmd state.Command) {
	if m.live.Load() == nil {
		m.logger.Debug("not connected, dropping command", "cmd", string(cmd))
		return
	}
	select {
	case m.commands <- cmd:
	default:
		m.logger.Warn("command queue full, dropping command", "cmd", string(cmd))
	}
}

// Run dials the hub and serves the connection, redialing after every
// failure until ctx is done. It always returns nil.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.states)
	for {
		err := m.session(ctx)
		if ctx.Err() != nil {
			m.setStatus(StatusDisconnected)
			return nil
		}
		if m.setStatus(StatusDisconnected) == StatusConnected {
			m.logger.Warn("connection to hub lost", "url", m.url, "error", err)
		} else {
			m.logger.Debug("dial failed", "url", m.url, "error", err)
		}
		if err := m.sleep(ctx, m.retryDelay); err != nil {
			return nil
		}
	}
}

func (m *Manager) session(ctx context.Context) error {
	c, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return err
	}
	m.drainCommands()
	m.live.Store(c)
	m.setStatus(StatusConnected)
	m.logger.Info("connected to hub", "url", m.url)

	sctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.writeLoop(sctx, c)
	}()
	// Unblocks ReadMessage when the parent context ends.
	stop := context.AfterFunc(sctx, func() { c.Close() })

	err = m.readLoop(sctx, c)

	m.live.Store(nil)
	stop()
	cancel()
	c.Close()
	wg.Wait()
	m.drainCommands()
	return err
}

func (m *Manager) readLoop(ctx context.Context, c *websocket.Conn) error {
	if m.pingInterval > 0 {
		pongWait := 2 * m.pingInterval
		c.SetReadDeadline(time.Now().Add(pongWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(pongWait))
		})
	}
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return err
		}
		s, err := state.DecodeServerFrame(msg)
		if err != nil {
			m.logger.Debug("dropping server frame", "error", err)
			continue
		}
		select {
		case m.states <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// writeLoop is the only writer of c while the session lasts.
func (m *Manager) writeLoop(ctx context.Context, c *websocket.Conn) {
	var pings <-chan time.Time
	if m.pingInterval > 0 {
		ticker := time.NewTicker(m.pingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-m.commands:
			frame, err := state.EncodeCommand(cmd)
			if err != nil {
				m.logger.Warn("dropping command", "cmd", string(cmd), "error", err)
				continue
			}
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				m.logger.Warn("sending command failed", "cmd", string(cmd), "error", err)
				continue
			}
			m.logger.Debug("command sent", "cmd", string(cmd))
		case <-pings:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				m.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (m *Manager) drainCommands() {
	for {
		select {
		case cmd := <-m.commands:
			m.logger.Debug("discarding stale command", "cmd", string(cmd))
		default:
			return
		}
	}
}

// setStatus stores s and returns the previous status.
func (m *Manager) setStatus(s Status) Status {
	prev := Status(m.status.Swap(int32(s)))
	if prev != s {
		m.logger.Debug("connectivity changed", "status", s.String())
	}
	return prev
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
