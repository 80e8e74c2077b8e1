// Package artwork turns cover bytes into images, colors and gradients.
package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyImage = errors.New("empty image data")
	ErrNoColor    = errors.New("no suitable colors found")
)

// Decode decodes raw cover bytes (jpeg, png, gif or webp).
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Thumbnail scales img to exactly w x h pixels.
func Thumbnail(img image.Image, w, h int) image.Image {
	if img == nil || w <= 0 || h <= 0 {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}
