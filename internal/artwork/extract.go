package artwork

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
)

// RGB is an 8-bit color without alpha.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Extractor picks one dominant color from a cover.
type Extractor interface {
	Name() string
	DominantColor(img image.Image) (RGB, error)
}

// NewExtractor selects a strategy by name. The choice is made once, at
// construction, and the animator never checks capabilities again.
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", "quantize":
		return QuantizeExtractor{}, nil
	case "average":
		return AverageExtractor{Size: 60}, nil
	case "vibrant":
		return VibrantExtractor{SampleRate: 5}, nil
	}
	return nil, fmt.Errorf("unknown palette strategy %q", name)
}

// QuantizeExtractor clusters the image with k-means and returns the most
// populated cluster. No background masks apply, so black, white and green
// covers report their own color.
type QuantizeExtractor struct{}

func (QuantizeExtractor) Name() string { return "quantize" }

func (QuantizeExtractor) DominantColor(img image.Image) (RGB, error) {
	if img == nil {
		return RGB{}, fmt.Errorf("nil image")
	}
	colors, err := prominentcolor.KmeansWithAll(prominentcolor.DefaultK, img,
		prominentcolor.ArgumentNoCropping, prominentcolor.DefaultSize, []prominentcolor.ColorBackgroundMask{})
	if err != nil {
		return RGB{}, fmt.Errorf("kmeans: %w", err)
	}
	if len(colors) == 0 {
		return RGB{}, ErrNoColor
	}
	c := colors[0].Color
	return RGB{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B)}, nil
}

// AverageExtractor downsamples to Size x Size and averages every channel.
type AverageExtractor struct {
	Size uint
}

func (AverageExtractor) Name() string { return "average" }

func (a AverageExtractor) DominantColor(img image.Image) (RGB, error) {
	if img == nil {
		return RGB{}, fmt.Errorf("nil image")
	}
	size := a.Size
	if size == 0 {
		size = 60
	}
	small := resize.Resize(size, size, img, resize.Bilinear)

	bounds := small.Bounds()
	var r, g, b, n uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(small.At(x, y)).(color.NRGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			b += uint64(c.B)
			n++
		}
	}
	if n == 0 {
		return RGB{}, ErrEmptyImage
	}
	return RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}, nil
}

// VibrantExtractor samples every SampleRate-th pixel and prefers light,
// saturated colors, falling back to k-means when none qualify.
type VibrantExtractor struct {
	SampleRate int
}

func (VibrantExtractor) Name() string { return "vibrant" }

func (v VibrantExtractor) DominantColor(img image.Image) (RGB, error) {
	if img == nil {
		return RGB{}, fmt.Errorf("nil image")
	}
	step := v.SampleRate
	if step <= 0 {
		step = 5
	}

	bounds := img.Bounds()
	counts := make(map[RGB]int)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			// Skip transparent pixels
			if a < 32768 {
				continue
			}
			counts[RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}]++
		}
	}

	type candidate struct {
		c     RGB
		score float64
	}
	var candidates []candidate
	for c, count := range counts {
		lightness, saturation := hsl(c)
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}
		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}
		score := saturation*2.5 + lightnessScore*1.5 + float64(count)/1000.0
		candidates = append(candidates, candidate{c: c, score: score})
	}

	if len(candidates) == 0 {
		return QuantizeExtractor{}.DominantColor(img)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].c.Hex() < candidates[j].c.Hex()
	})
	return candidates[0].c, nil
}

// hsl returns HSL lightness and saturation in [0,1].
func hsl(c RGB) (lightness, saturation float64) {
	rf := float64(c.R) / 255.0
	gf := float64(c.G) / 255.0
	bf := float64(c.B) / 255.0

	hi := max(rf, gf, bf)
	lo := min(rf, gf, bf)
	lightness = (hi + lo) / 2.0
	if hi == lo {
		return lightness, 0
	}
	if lightness > 0.5 {
		return lightness, (hi - lo) / (2.0 - hi - lo)
	}
	return lightness, (hi - lo) / (hi + lo)
}
