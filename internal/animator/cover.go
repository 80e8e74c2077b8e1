package animator

import (
	"image"
	"time"
)

type CoverPhase int

const (
	CoverEmpty CoverPhase = iota
	CoverShowing
)

func (p CoverPhase) String() string {
	if p == CoverShowing {
		return "showing"
	}
	return "empty"
}

// CoverTransition fades a newly received cover in from transparent.
// The previous image is replaced outright, not cross-blended.
type CoverTransition struct {
	phase CoverPhase
	image image.Image
	fade  Timeline
}

func newCoverTransition(d time.Duration) CoverTransition {
	return CoverTransition{fade: NewTimeline(d, EaseInOutQuad)}
}

// Show swaps in img and restarts the fade at opacity 0.
func (c *CoverTransition) Show(img image.Image, now time.Time) {
	c.image = img
	c.phase = CoverShowing
	c.fade.Start(now, 0, 1)
}

func (c *CoverTransition) Phase() CoverPhase { return c.phase }

func (c *CoverTransition) Image() image.Image { return c.image }

// Opacity at now; 0 while empty.
func (c *CoverTransition) Opacity(now time.Time) float64 {
	if c.phase == CoverEmpty {
		return 0
	}
	return c.fade.Value(now)
}

// Animating reports whether the fade is still in flight.
func (c *CoverTransition) Animating(now time.Time) bool {
	return c.phase == CoverShowing && !c.fade.Done(now)
}
