// Package encode compresses raster buffers into JPEG byte streams.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/raster"
)

// minQuality is the encode-quality floor. Below it, artifacting grows
// disproportionately to the size savings.
const minQuality = 0.3

// EncodeQuality clamps quality to the [minQuality, 1.0] encoding range.
func EncodeQuality(quality float64) float64 {
	if quality < minQuality {
		return minQuality
	}
	if quality > 1 {
		return 1
	}
	return quality
}

// Image is a compressed page image plus its pixel dimensions. Transient;
// consumed by the assembler for exactly one page.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Options controls JPEG encoding.
type Options struct {
	// Grayscale converts the buffer before encoding.
	Grayscale bool
}

// JPEG encodes buf as a baseline JPEG at the floored quality factor. PDF
// pages are opaque, so no alpha channel is carried.
func JPEG(buf *raster.Buffer, quality float64, opts Options) (*Image, error) {
	if buf == nil || buf.Img == nil || buf.Width <= 0 || buf.Height <= 0 {
		return nil, fmt.Errorf("cannot encode empty raster buffer")
	}

	var img image.Image = buf.Img
	if opts.Grayscale {
		bounds := buf.Img.Bounds()
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, buf.Img, image.Point{}, draw.Src)
		img = gray
	}

	q := int(math.Round(EncodeQuality(quality) * 100))
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Int("jpeg_size", out.Len()).
		Int("quality", q).
		Int("width", buf.Width).
		Int("height", buf.Height).
		Bool("grayscale", opts.Grayscale).
		Msg("encoded page as JPEG")

	return &Image{Data: out.Bytes(), Width: buf.Width, Height: buf.Height}, nil
}
