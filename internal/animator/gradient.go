package animator

import (
	"time"

	"nowcast/internal/artwork"
)

type GradientPhase int

const (
	GradientIdle GradientPhase = iota
	GradientAnimating
	GradientSettled
)

func (p GradientPhase) String() string {
	switch p {
	case GradientAnimating:
		return "animating"
	case GradientSettled:
		return "settled"
	}
	return "idle"
}

// GradientTransition interpolates the background between derived gradients.
type GradientTransition struct {
	phase     GradientPhase
	from      artwork.Gradient
	target    artwork.Gradient
	displayed artwork.Gradient
	tl        Timeline
}

func newGradientTransition(d time.Duration) GradientTransition {
	return GradientTransition{tl: NewTimeline(d, EaseInOutQuad)}
}

// Retarget moves towards next. The first gradient ever is applied without
// animation; later ones restart from whatever is displayed at now, which is
// mid-flight when a previous transition has not finished.
func (g *GradientTransition) Retarget(next artwork.Gradient, now time.Time) {
	if g.phase == GradientIdle {
		g.displayed = next
		g.target = next
		g.phase = GradientSettled
		return
	}
	g.from = g.Tick(now)
	g.target = next
	g.phase = GradientAnimating
	g.tl.Start(now, 0, 1)
}

// Tick returns the gradient to render at now.
func (g *GradientTransition) Tick(now time.Time) artwork.Gradient {
	if g.phase != GradientAnimating {
		return g.displayed
	}
	if g.tl.Done(now) {
		g.displayed = g.target
		g.phase = GradientSettled
		return g.displayed
	}
	g.displayed = g.from.Lerp(g.target, g.tl.Eased(now))
	return g.displayed
}

func (g *GradientTransition) Phase() GradientPhase { return g.phase }
