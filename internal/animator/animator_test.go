package animator

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nowcast/internal/artwork"
	"nowcast/internal/state"
)

// scriptedExtractor returns its colors in order, or err when set.
type scriptedExtractor struct {
	colors []artwork.RGB
	err    error
	calls  int
}

func (s *scriptedExtractor) Name() string { return "scripted" }

func (s *scriptedExtractor) DominantColor(image.Image) (artwork.RGB, error) {
	s.calls++
	if s.err != nil {
		return artwork.RGB{}, s.err
	}
	c := s.colors[0]
	if len(s.colors) > 1 {
		s.colors = s.colors[1:]
	}
	return c, nil
}

func pngCover(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestEaseInOutQuad(t *testing.T) {
	assert.Equal(t, 0.0, EaseInOutQuad(0))
	assert.Equal(t, 0.5, EaseInOutQuad(0.5))
	assert.Equal(t, 1.0, EaseInOutQuad(1))

	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := EaseInOutQuad(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestTimeline(t *testing.T) {
	tl := NewTimeline(100*time.Millisecond, Linear)
	assert.False(t, tl.Done(t0.Add(time.Hour)), "never started")
	assert.Equal(t, 0.0, tl.Progress(t0))

	tl.Start(t0, 10, 20)
	assert.Equal(t, 10.0, tl.Value(t0))
	assert.InDelta(t, 15.0, tl.Value(t0.Add(50*time.Millisecond)), 1e-9)
	assert.Equal(t, 20.0, tl.Value(t0.Add(time.Second)))
	assert.True(t, tl.Done(t0.Add(100*time.Millisecond)))

	// restarting abandons progress
	tl.Start(t0.Add(80*time.Millisecond), 0, 1)
	assert.Equal(t, 0.0, tl.Progress(t0.Add(80*time.Millisecond)))

	zero := NewTimeline(0, nil)
	zero.Start(t0, 0, 1)
	assert.Equal(t, 1.0, zero.Value(t0))
}

func TestCoverFadeIn(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 100, G: 100, B: 100}}}
	a := New(ext, WithLogger(quietLogger()))

	f := a.Tick(t0)
	assert.False(t, f.HasState)
	assert.Nil(t, f.Cover)
	assert.Equal(t, CoverEmpty, a.CoverPhase())

	a.Apply(state.PlayerState{Track: "A", Cover: pngCover(t, color.RGBA{255, 0, 0, 255})}, t0)
	assert.Equal(t, CoverShowing, a.CoverPhase())

	f = a.Tick(t0)
	require.NotNil(t, f.Cover)
	assert.Equal(t, 0.0, f.CoverOpacity)
	assert.True(t, f.Animating)

	mid := a.Tick(t0.Add(175 * time.Millisecond))
	assert.InDelta(t, 0.5, mid.CoverOpacity, 1e-9)

	done := a.Tick(t0.Add(DefaultCoverFade))
	assert.Equal(t, 1.0, done.CoverOpacity)
	assert.False(t, done.Animating)
}

func TestFirstGradientIsNotAnimated(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 100, G: 200, B: 250}}}
	a := New(ext, WithLogger(quietLogger()))
	assert.Equal(t, GradientIdle, a.GradientPhase())

	a.Apply(state.PlayerState{Cover: pngCover(t, color.White)}, t0)

	assert.Equal(t, GradientSettled, a.GradientPhase())
	f := a.Tick(t0)
	assert.True(t, f.HasGradient)
	assert.Equal(t, artwork.Gradient{Top: artwork.RGB{R: 100, G: 200, B: 250}, Bottom: artwork.RGB{R: 28, G: 56, B: 70}}, f.Gradient)
}

// stops lists the six channels of g, top then bottom.
func stops(g artwork.Gradient) [6]uint8 {
	return [6]uint8{g.Top.R, g.Top.G, g.Top.B, g.Bottom.R, g.Bottom.G, g.Bottom.B}
}

func TestGradientInterpolationBoundaries(t *testing.T) {
	// Red and bottom red fall, green rises, blue holds.
	from, to := artwork.RGB{R: 240, G: 20, B: 200}, artwork.RGB{R: 40, G: 220, B: 200}
	ext := &scriptedExtractor{colors: []artwork.RGB{from, to}}
	a := New(ext, WithLogger(quietLogger()))
	cover := pngCover(t, color.White)

	a.Apply(state.PlayerState{Cover: cover}, t0)
	settled := a.Tick(t0).Gradient

	start := t0.Add(time.Second)
	a.Apply(state.PlayerState{Cover: cover}, start)
	assert.Equal(t, GradientAnimating, a.GradientPhase())

	assert.Equal(t, settled, a.Tick(start).Gradient, "progress 0 shows the prior settled gradient")

	want := artwork.GradientFrom(to, 1.0, 0.28)
	first, target := stops(settled), stops(want)
	prev := first
	for ms := 50; ms < 600; ms += 50 {
		cur := stops(a.Tick(start.Add(time.Duration(ms) * time.Millisecond)).Gradient)
		for i := range cur {
			if target[i] >= first[i] {
				assert.GreaterOrEqual(t, cur[i], prev[i], "channel %d at %dms", i, ms)
				assert.LessOrEqual(t, cur[i], target[i], "channel %d at %dms", i, ms)
			} else {
				assert.LessOrEqual(t, cur[i], prev[i], "channel %d at %dms", i, ms)
				assert.GreaterOrEqual(t, cur[i], target[i], "channel %d at %dms", i, ms)
			}
		}
		prev = cur
	}

	end := a.Tick(start.Add(DefaultGradientFade))
	assert.Equal(t, want, end.Gradient)
	assert.Equal(t, GradientSettled, a.GradientPhase())
	assert.False(t, end.Animating)
}

func TestGradientRestartsFromInterpolatedValue(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 0, G: 0, B: 0}, {R: 200, G: 200, B: 200}, {R: 0, G: 0, B: 0}}}
	a := New(ext, WithLogger(quietLogger()), WithGradientFade(100*time.Millisecond))
	cover := pngCover(t, color.White)

	a.Apply(state.PlayerState{Cover: cover}, t0)
	a.Apply(state.PlayerState{Cover: cover}, t0)

	midway := t0.Add(50 * time.Millisecond)
	inFlight := a.Tick(midway).Gradient
	require.Equal(t, uint8(100), inFlight.Top.R)

	a.Apply(state.PlayerState{Cover: cover}, midway)
	assert.Equal(t, inFlight, a.Tick(midway).Gradient, "restart begins at the displayed value, not the old settled one")

	assert.Equal(t, artwork.Gradient{}, a.Tick(midway.Add(100*time.Millisecond)).Gradient)
}

func TestIdenticalCoverRetriggers(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 10, G: 20, B: 30}}}
	a := New(ext, WithLogger(quietLogger()))
	cover := pngCover(t, color.RGBA{10, 20, 30, 255})

	a.Apply(state.PlayerState{Track: "A", Artist: "X", Cover: cover}, t0)
	later := t0.Add(2 * time.Second)
	assert.Equal(t, 1.0, a.Tick(later).CoverOpacity)

	a.Apply(state.PlayerState{Track: "A", Artist: "X", IsPlaying: true, Cover: cover}, later)
	f := a.Tick(later)
	assert.Equal(t, 0.0, f.CoverOpacity)
	assert.Equal(t, GradientAnimating, a.GradientPhase())
	assert.True(t, f.State.IsPlaying)
	assert.Equal(t, 2, ext.calls)
}

func TestStateWithoutCoverKeepsVisuals(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 10, G: 20, B: 30}}}
	a := New(ext, WithLogger(quietLogger()))
	a.Apply(state.PlayerState{Track: "A", Cover: pngCover(t, color.White)}, t0)
	before := a.Tick(t0.Add(time.Second))

	a.Apply(state.PlayerState{Track: "B"}, t0.Add(time.Second))
	after := a.Tick(t0.Add(time.Second))

	assert.Equal(t, "B", after.State.Track)
	assert.Equal(t, before.Cover, after.Cover)
	assert.Equal(t, before.Gradient, after.Gradient)
	assert.Equal(t, 1, ext.calls)
}

func TestBadCoverKeepsPreviousVisuals(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 10, G: 20, B: 30}, {R: 90, G: 90, B: 90}}}
	a := New(ext, WithLogger(quietLogger()))
	a.Apply(state.PlayerState{Track: "A", Cover: pngCover(t, color.White)}, t0)
	before := a.Tick(t0.Add(time.Second))

	a.Apply(state.PlayerState{Track: "B", Cover: []byte("garbage")}, t0.Add(time.Second))
	after := a.Tick(t0.Add(time.Second))

	assert.Equal(t, "B", after.State.Track)
	assert.Same(t, before.Cover, after.Cover)
	assert.Equal(t, 1.0, after.CoverOpacity)
	assert.Equal(t, before.Gradient, after.Gradient)
	assert.Equal(t, GradientSettled, a.GradientPhase())
}

func TestExtractionFailureKeepsPreviousVisuals(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 10, G: 20, B: 30}}}
	a := New(ext, WithLogger(quietLogger()))
	a.Apply(state.PlayerState{Track: "A", Cover: pngCover(t, color.White)}, t0)
	before := a.Tick(t0.Add(time.Second))

	ext.err = errors.New("no colors")
	a.Apply(state.PlayerState{Track: "B", Cover: pngCover(t, color.Black)}, t0.Add(time.Second))
	after := a.Tick(t0.Add(time.Second))

	assert.Equal(t, "B", after.State.Track)
	assert.Same(t, before.Cover, after.Cover)
	assert.Equal(t, 1.0, after.CoverOpacity)
	assert.Equal(t, CoverShowing, a.CoverPhase())
	assert.Equal(t, before.Gradient, after.Gradient)
	assert.Equal(t, GradientSettled, a.GradientPhase())
}

func TestPanickingExtractorIsContained(t *testing.T) {
	a := New(panicExtractor{}, WithLogger(quietLogger()))
	assert.NotPanics(t, func() {
		a.Apply(state.PlayerState{Cover: pngCover(t, color.White)}, t0)
	})
	assert.Equal(t, GradientIdle, a.GradientPhase())
	assert.Equal(t, CoverEmpty, a.CoverPhase())
}

type panicExtractor struct{}

func (panicExtractor) Name() string { return "panic" }

func (panicExtractor) DominantColor(image.Image) (artwork.RGB, error) {
	panic("boom")
}

func TestCoverSizeAndMultipliers(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 100, G: 100, B: 100}}}
	a := New(ext, WithLogger(quietLogger()), WithCoverSize(4, 6), WithMultipliers(2, 0.5), WithCoverFade(0))
	a.Apply(state.PlayerState{Cover: pngCover(t, color.White)}, t0)

	f := a.Tick(t0)
	assert.Equal(t, image.Rect(0, 0, 4, 6), f.Cover.Bounds())
	assert.Equal(t, 1.0, f.CoverOpacity)
	assert.Equal(t, artwork.RGB{R: 200, G: 200, B: 200}, f.Gradient.Top)
	assert.Equal(t, artwork.RGB{R: 50, G: 50, B: 50}, f.Gradient.Bottom)
}

func TestConfigureChangesLaterTransitions(t *testing.T) {
	ext := &scriptedExtractor{colors: []artwork.RGB{{R: 100, G: 100, B: 100}}}
	a := New(ext, WithLogger(quietLogger()))
	a.Configure(WithCoverFade(0), WithCoverSize(2, 2))

	a.Apply(state.PlayerState{Cover: pngCover(t, color.White)}, t0)
	f := a.Tick(t0)
	assert.Equal(t, 1.0, f.CoverOpacity)
	assert.Equal(t, image.Rect(0, 0, 2, 2), f.Cover.Bounds())
}
