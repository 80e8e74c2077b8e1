package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 5 * time.Second
	maxCommandSize = 4096
	commandTimeout = 5 * time.Second
)

// wsPeer is a websocket display connection. The read pump runs on the HTTP
// handler goroutine, the write pump on its own goroutine; queued frames are
// handed from Send to the write pump through the buffered send channel.
type wsPeer struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	limiter      *rate.Limiter
	pingInterval time.Duration
	logger       *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func newPeer(conn *websocket.Conn, buffer int, limiter *rate.Limiter, pingInterval time.Duration, logger *slog.Logger) *wsPeer {
	id := uuid.NewString()
	if v7, err := uuid.NewV7(); err == nil {
		id = v7.String()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &wsPeer{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, buffer),
		limiter:      limiter,
		pingInterval: pingInterval,
		logger:       logger.With("peer", id, "remote", conn.RemoteAddr().String()),
		done:         make(chan struct{}),
	}
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Send(frame []byte) error {
	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}
	select {
	case p.send <- frame:
		return nil
	default:
		return ErrPeerBackpressure
	}
}

func (p *wsPeer) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close()
	})
	return nil
}

func (p *wsPeer) writePump() {
	var pings <-chan time.Time
	if p.pingInterval > 0 {
		ticker := time.NewTicker(p.pingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-p.done:
			return
		case frame := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				p.logger.Debug("write failed", "error", err)
				p.Close()
				return
			}
		case <-pings:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				p.logger.Debug("ping failed", "error", err)
				p.Close()
				return
			}
		}
	}
}

// readPump forwards inbound frames to the hub until the connection fails.
func (p *wsPeer) readPump(ctx context.Context, h *Hub) {
	defer func() {
		h.Disconnect(p)
		p.Close()
	}()

	p.conn.SetReadLimit(maxCommandSize)
	if p.pingInterval > 0 {
		pongWait := 2 * p.pingInterval
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		p.conn.SetPongHandler(func(string) error {
			return p.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Debug("read failed", "error", err)
			}
			return
		}
		if p.limiter != nil && !p.limiter.Allow() {
			p.logger.Warn("command rate exceeded, dropping frame")
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		h.HandleMessage(cctx, p, msg)
		cancel()
	}
}
