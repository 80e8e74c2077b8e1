package animator

import "time"

// Easing maps linear progress in [0,1] onto curve progress in [0,1].
type Easing func(t float64) float64

// Linear is the identity curve.
func Linear(t float64) float64 { return t }

// EaseInOutQuad accelerates through the first half and decelerates through
// the second.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// Timeline interpolates a float from one value to another over a fixed
// duration. Starting it again abandons whatever progress it had.
type Timeline struct {
	Duration time.Duration
	Curve    Easing

	start    time.Time
	from, to float64
	running  bool
}

// NewTimeline returns an idle timeline.
func NewTimeline(d time.Duration, curve Easing) Timeline {
	if curve == nil {
		curve = Linear
	}
	return Timeline{Duration: d, Curve: curve}
}

// Start restarts progress at 0.
func (tl *Timeline) Start(now time.Time, from, to float64) {
	tl.start = now
	tl.from = from
	tl.to = to
	tl.running = true
}

// Progress is the linear progress at now, clamped to [0,1].
func (tl *Timeline) Progress(now time.Time) float64 {
	if !tl.running {
		return 0
	}
	if tl.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(tl.start)) / float64(tl.Duration)
	return min(1, max(0, p))
}

// Eased is Curve(Progress(now)).
func (tl *Timeline) Eased(now time.Time) float64 {
	curve := tl.Curve
	if curve == nil {
		curve = Linear
	}
	return curve(tl.Progress(now))
}

// Value is from + (to - from) * Eased(now).
func (tl *Timeline) Value(now time.Time) float64 {
	return tl.from + (tl.to-tl.from)*tl.Eased(now)
}

// Done reports whether a started timeline has reached progress 1.
func (tl *Timeline) Done(now time.Time) bool {
	return tl.running && tl.Progress(now) >= 1
}
