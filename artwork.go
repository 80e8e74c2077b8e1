package main

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nowcast/internal/artwork"
)

// Card base color under the translucent gradient (#141414).
var baseColor = artwork.RGB{R: 0x14, G: 0x14, B: 0x14}

const halfBlock = "▀"

// cell is one terminal cell of the cover: the upper half-block takes fg,
// the lower half takes bg.
type cell struct {
	fg, bg artwork.RGB
}

// coverCells samples img into cols x rows cells, two pixel rows per cell,
// and blends every pixel over the row background by opacity. rowBg gives
// the card background behind cell row y.
func coverCells(img image.Image, cols, rows int, opacity float64, rowBg func(y int) artwork.RGB) [][]cell {
	if img == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	sample := func(x, py int) artwork.RGB {
		sx := b.Min.X + x*b.Dx()/cols
		sy := b.Min.Y + py*b.Dy()/(rows*2)
		r, g, bl, _ := img.At(sx, sy).RGBA()
		return artwork.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8)}
	}

	cells := make([][]cell, rows)
	for y := 0; y < rows; y++ {
		bg := rowBg(y)
		cells[y] = make([]cell, cols)
		for x := 0; x < cols; x++ {
			cells[y][x] = cell{
				fg: artwork.Blend(bg, sample(x, 2*y), opacity),
				bg: artwork.Blend(bg, sample(x, 2*y+1), opacity),
			}
		}
	}
	return cells
}

func renderCells(row []cell) string {
	var sb strings.Builder
	for _, c := range row {
		sb.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.fg.Hex())).
			Background(lipgloss.Color(c.bg.Hex())).
			Render(halfBlock))
	}
	return sb.String()
}

// cardBackgrounds returns the color of each card row: the gradient image
// composited over the base, or the plain base before any gradient.
func cardBackgrounds(g artwork.Gradient, hasGradient bool, height int) []artwork.RGB {
	rows := make([]artwork.RGB, max(height, 0))
	if !hasGradient {
		for y := range rows {
			rows[y] = baseColor
		}
		return rows
	}
	img := g.Image(1, len(rows))
	for y := range rows {
		rows[y] = artwork.Composite(baseColor, img.NRGBAAt(0, y))
	}
	return rows
}
