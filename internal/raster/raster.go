// Package raster renders pages to pixel buffers at a quality-derived scale.
package raster

import (
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/pdfengine"
)

const (
	minScale = 0.5
	maxScale = 2.0
)

// ScaleForQuality maps quality in [0,1] onto the render scale range
// [0.5, 2.0]. Low quality still renders at a legible minimum; high quality
// upsamples for crisper re-encoding.
func ScaleForQuality(quality float64) float64 {
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}
	return minScale + quality*(maxScale-minScale)
}

// Buffer is a rendered page. Owned by the rasterization step for one page and
// consumed immediately by the encoder.
type Buffer struct {
	Width  int
	Height int
	Img    image.Image
}

// Render rasterizes one page of doc at the scale derived from quality. The
// buffer dimensions equal the intrinsic viewport multiplied by the scale,
// rounded to integer pixels by the engine.
func Render(doc pdfengine.Document, page int, quality float64) (*Buffer, error) {
	scale := ScaleForQuality(quality)
	img, err := doc.Render(page, scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d at scale %.2f: %w", page+1, scale, err)
	}
	bounds := img.Bounds()
	log.Debug().
		Int("page", page+1).
		Float64("scale", scale).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("rendered page")
	return &Buffer{Width: bounds.Dx(), Height: bounds.Dy(), Img: img}, nil
}
