package artwork

import (
	"image"
	"image/color"
	"math"
)

// Stop positions and alphas of the two-stop background, top to bottom.
const (
	topStop     = 0.4
	topAlpha    = 230
	bottomAlpha = 200
)

// Gradient is a vertical two-stop background.
type Gradient struct {
	Top, Bottom RGB
}

// GradientFrom derives the background from a dominant color:
// top = min(255, c*topMul), bottom = c*bottomMul, per channel.
func GradientFrom(c RGB, topMul, bottomMul float64) Gradient {
	scale := func(v uint8, m float64) uint8 {
		return uint8(clamp(math.Floor(float64(v) * m)))
	}
	return Gradient{
		Top:    RGB{scale(c.R, topMul), scale(c.G, topMul), scale(c.B, topMul)},
		Bottom: RGB{scale(c.R, bottomMul), scale(c.G, bottomMul), scale(c.B, bottomMul)},
	}
}

// Lerp moves every channel of both stops from g towards to by t:
// g + (to - g) * t, rounded and clamped to [0,255].
func (g Gradient) Lerp(to Gradient, t float64) Gradient {
	return Gradient{
		Top:    lerpRGB(g.Top, to.Top, t),
		Bottom: lerpRGB(g.Bottom, to.Bottom, t),
	}
}

// At returns the gradient color at vertical fraction f (0 top, 1 bottom).
// Above the top stop the top color is flat.
func (g Gradient) At(f float64) RGB {
	return lerpRGB(g.Top, g.Bottom, stopT(f))
}

// Image renders the gradient at w x h with its stop alphas.
func (g Gradient) Image(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		f := 0.0
		if h > 1 {
			f = float64(y) / float64(h-1)
		}
		c := g.At(f)
		a := uint8(clamp(math.Round(topAlpha + (bottomAlpha-topAlpha)*stopT(f))))
		px := color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}

func stopT(f float64) float64 {
	if f <= topStop {
		return 0
	}
	if f >= 1 {
		return 1
	}
	return (f - topStop) / (1 - topStop)
}

// Blend mixes c over base with the given opacity in [0,1].
func Blend(base, c RGB, opacity float64) RGB {
	return lerpRGB(base, c, opacity)
}

// Composite lays the translucent pixel px over an opaque base.
func Composite(base RGB, px color.NRGBA) RGB {
	return lerpRGB(base, RGB{px.R, px.G, px.B}, float64(px.A)/255.0)
}

func lerpRGB(a, b RGB, t float64) RGB {
	return RGB{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(clamp(math.Round(float64(a) + (float64(b)-float64(a))*t)))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}
