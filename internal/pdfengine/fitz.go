package pdfengine

import (
	"fmt"
	"image"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
)

// baseDPI is the PDF user-space resolution; scale 1.0 renders at 72 DPI.
const baseDPI = 72.0

// FitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type FitzOpener struct{}

// NewFitzOpener creates a go-fitz based opener.
func NewFitzOpener() FitzOpener { return FitzOpener{} }

func (FitzOpener) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) NumPages() int { return d.doc.NumPage() }

func (d *fitzDoc) TextTokens(page int) ([]string, error) {
	if page < 0 || page >= d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.doc.NumPage())
	}
	text, err := d.doc.Text(page)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	// Fields trims and drops empty runs in one pass.
	return strings.Fields(text), nil
}

func (d *fitzDoc) Viewport(page int) (float64, float64, error) {
	bounds, err := d.doc.Bound(page)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read page %d bounds: %w", page, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

func (d *fitzDoc) Render(page int, scale float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, baseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

func (d *fitzDoc) Close() error { return d.doc.Close() }
