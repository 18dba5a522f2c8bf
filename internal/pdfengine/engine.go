package pdfengine

import "image"

// Document abstracts the query view of a parsed PDF: page count, extracted
// text and rasterization. It is read-only and must be closed by its owner.
type Document interface {
	// NumPages returns the page count.
	NumPages() int
	// TextTokens returns the trimmed text runs of a page (0-based index).
	TextTokens(page int) ([]string, error)
	// Viewport returns the intrinsic page dimensions in PDF points.
	Viewport(page int) (width, height float64, err error)
	// Render rasterizes a page at the given scale factor relative to the
	// intrinsic viewport (1.0 = 72 DPI).
	Render(page int, scale float64) (image.Image, error)
	Close() error
}

// Opener abstracts opening raw PDF bytes into a Document so any conforming
// engine can be substituted.
type Opener interface {
	Open(data []byte) (Document, error)
}
