// Package poller samples the media provider and emits changed states.
package poller

import (
	"context"
	"log/slog"
	"time"

	"nowcast/internal/media"
	"nowcast/internal/state"
)

const DefaultInterval = time.Second

// Publisher receives every state that differs from the previous emission.
type Publisher interface {
	Publish(s state.PlayerState)
}

type Poller struct {
	querier   media.Querier
	publisher Publisher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	last    state.PlayerState
	hasLast bool
}

type Option func(*Poller)

func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithQueryTimeout bounds a single provider query.
func WithQueryTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

func New(q media.Querier, pub Publisher, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		querier:   q,
		publisher: pub,
		interval:  interval,
		timeout:   interval,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls immediately and then on every interval until ctx is done.
// Provider failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll takes one sample and reports whether it was emitted.
func (p *Poller) Poll(ctx context.Context) bool {
	qctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	s, ok, err := p.querier.QueryCurrent(qctx)
	if err != nil {
		p.logger.Warn("provider query failed", "error", err)
		return false
	}
	if !ok {
		return false
	}
	if p.hasLast && s.Equal(p.last) {
		return false
	}

	p.last = s.Clone()
	p.hasLast = true
	p.logger.Debug("state emitted", "track", s.Track, "artist", s.Artist, "playing", s.IsPlaying)
	p.publisher.Publish(s)
	return true
}
