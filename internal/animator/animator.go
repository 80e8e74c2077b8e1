// Package animator turns discrete player states into continuous visual
// transitions: a cover fade-in and a background gradient interpolation.
//
// An Animator is not safe for concurrent use. It belongs to the presentation
// loop, which is the only caller of Apply and Tick.
package animator

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"nowcast/internal/artwork"
	"nowcast/internal/state"
)

const (
	DefaultCoverFade    = 350 * time.Millisecond
	DefaultGradientFade = 600 * time.Millisecond
)

// Frame is everything a renderer needs for one presentation tick.
type Frame struct {
	State    state.PlayerState
	HasState bool

	Cover        image.Image
	CoverOpacity float64

	Gradient    artwork.Gradient
	HasGradient bool

	Animating bool
}

type Animator struct {
	extractor artwork.Extractor
	topMul    float64
	bottomMul float64
	coverW    int
	coverH    int
	logger    *slog.Logger

	current  state.PlayerState
	hasState bool

	cover      CoverTransition
	background GradientTransition
}

type Option func(*Animator)

func WithCoverFade(d time.Duration) Option {
	return func(a *Animator) { a.cover.fade.Duration = d }
}

func WithGradientFade(d time.Duration) Option {
	return func(a *Animator) { a.background.tl.Duration = d }
}

// WithMultipliers sets the per-channel factors deriving the top and bottom
// gradient stops from the dominant color.
func WithMultipliers(top, bottom float64) Option {
	return func(a *Animator) {
		a.topMul = top
		a.bottomMul = bottom
	}
}

// WithCoverSize scales every accepted cover to w x h pixels once, on arrival.
func WithCoverSize(w, h int) Option {
	return func(a *Animator) {
		a.coverW = w
		a.coverH = h
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Animator) { a.logger = l }
}

func New(extractor artwork.Extractor, opts ...Option) *Animator {
	a := &Animator{
		extractor:  extractor,
		topMul:     1.0,
		bottomMul:  0.28,
		logger:     slog.Default(),
		cover:      newCoverTransition(DefaultCoverFade),
		background: newGradientTransition(DefaultGradientFade),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configure applies opts to a running animator. New durations take effect
// from the next transition tick; a new cover size from the next cover.
func (a *Animator) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(a)
	}
}

// Apply takes a newly received state. Text fields are always replaced. A
// state carrying a cover restarts the fade and retargets the gradient, even
// when the bytes equal the cover already shown. A cover that fails to decode
// or yields no color is logged and leaves cover and background as they were.
func (a *Animator) Apply(s state.PlayerState, now time.Time) {
	a.current = s
	a.hasState = true

	if !s.HasCover() {
		return
	}

	img, err := a.decode(s.Cover)
	if err != nil {
		a.logger.Warn("cover decode failed", "track", s.Track, "error", err)
		return
	}

	dominant, err := a.extract(img)
	if err != nil {
		a.logger.Warn("cover color extraction failed",
			"track", s.Track, "strategy", a.extractor.Name(), "error", err)
		return
	}

	if a.coverW > 0 && a.coverH > 0 {
		img = artwork.Thumbnail(img, a.coverW, a.coverH)
	}
	a.cover.Show(img, now)
	a.background.Retarget(artwork.GradientFrom(dominant, a.topMul, a.bottomMul), now)
}

// Tick advances both transitions to now and returns the frame to render.
func (a *Animator) Tick(now time.Time) Frame {
	f := Frame{
		State:        a.current,
		HasState:     a.hasState,
		Cover:        a.cover.Image(),
		CoverOpacity: a.cover.Opacity(now),
		Gradient:     a.background.Tick(now),
		HasGradient:  a.background.Phase() != GradientIdle,
	}
	f.Animating = a.cover.Animating(now) || a.background.Phase() == GradientAnimating
	return f
}

func (a *Animator) CoverPhase() CoverPhase { return a.cover.Phase() }

func (a *Animator) GradientPhase() GradientPhase { return a.background.Phase() }

// decode and extract turn panics from image code into errors.
func (a *Animator) decode(data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoding cover panicked: %v", r)
		}
	}()
	return artwork.Decode(data)
}

func (a *Animator) extract(img image.Image) (c artwork.RGB, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting color panicked: %v", r)
		}
	}()
	return a.extractor.DominantColor(img)
}
