package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"nowcast/internal/state"
)

// Server exposes a Hub over HTTP: the websocket endpoint at "/", plus
// read-only /state and /healthz.
type Server struct {
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	sendBuffer   int
	commandRate  rate.Limit
	commandBurst int
	pingInterval time.Duration
}

type ServerOption func(*Server)

// WithSendBuffer sets how many frames may be queued for a slow peer before
// it is dropped.
func WithSendBuffer(n int) ServerOption {
	return func(s *Server) { s.sendBuffer = n }
}

// WithCommandRate limits inbound frames per peer; frames over the limit are
// dropped. A non-positive perSecond disables the limit.
func WithCommandRate(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.commandRate = rate.Inf
		} else {
			s.commandRate = rate.Limit(perSecond)
		}
		s.commandBurst = burst
	}
}

// WithPingInterval enables keepalive pings; peers silent for two intervals
// are dropped. Zero disables it.
func WithPingInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.pingInterval = d }
}

func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

func NewServer(h *Hub, opts ...ServerOption) *Server {
	s := &Server{
		hub:    h,
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			// Displays are not authenticated; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       slog.Default(),
		sendBuffer:   16,
		commandRate:  5,
		commandBurst: 5,
		pingInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/", s.handleWebSocket)
	s.router.Get("/state", s.handleState)
	s.router.Get("/healthz", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	limiter := rate.NewLimiter(s.commandRate, max(s.commandBurst, 1))
	p := newPeer(conn, s.sendBuffer, limiter, s.pingInterval, s.logger)
	s.hub.Connect(p)

	go p.writePump()
	p.readPump(r.Context(), s.hub)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	last, ok := s.hub.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	frame, err := state.EncodeStateFrame(last)
	if err != nil {
		s.logger.Error("encoding state", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding state failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(frame)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.Len()})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}
