package main

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"nowcast/internal/animator"
	"nowcast/internal/artwork"
	"nowcast/internal/config"
	"nowcast/internal/conn"
	"nowcast/internal/state"
)

// generateTestImage creates a simple test image with specified dimensions and colors
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// assertNoError is a test helper that fails the test if an error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// assertEqual is a generic test helper for comparing values
func assertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// fakeLink stands in for the connection manager.
type fakeLink struct {
	states chan state.PlayerState
	status conn.Status

	mu   sync.Mutex
	sent []state.Command
}

func newFakeLink() *fakeLink {
	return &fakeLink{states: make(chan state.PlayerState, 4), status: conn.StatusConnected}
}

func (f *fakeLink) States() <-chan state.PlayerState { return f.states }

func (f *fakeLink) Status() conn.Status { return f.status }

// Send records cmd unless the link reports itself disconnected, as the
// manager does.
func (f *fakeLink) Send(cmd state.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != conn.StatusConnected {
		return
	}
	f.sent = append(f.sent, cmd)
}

func (f *fakeLink) commands() []state.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]state.Command(nil), f.sent...)
}

// fixedExtractor always reports the same color.
type fixedExtractor struct {
	c artwork.RGB
}

func (fixedExtractor) Name() string { return "fixed" }

func (f fixedExtractor) DominantColor(image.Image) (artwork.RGB, error) { return f.c, nil }

func testConfig() *config.SafeConfig {
	var cfg config.Config
	cfg.Animation.FrameMs = 33
	cfg.UI.MaxWidth = 60
	cfg.UI.CoverColumns = 16
	cfg.UI.CoverRows = 8
	sc := &config.SafeConfig{}
	sc.Set(cfg)
	return sc
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestModel builds a model whose clock is fixed at start.
func newTestModel(link *fakeLink, start time.Time) model {
	anim := animator.New(fixedExtractor{artwork.RGB{R: 100, G: 200, B: 250}},
		animator.WithCoverSize(16, 16),
		animator.WithLogger(quietLogger()),
	)
	m := newModel(testConfig(), link, anim, quietLogger())
	m.now = func() time.Time { return start }
	return m
}
