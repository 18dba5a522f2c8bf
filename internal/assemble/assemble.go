// Package assemble builds the output document page-by-page, either copying a
// source page object graph verbatim or embedding a freshly encoded image as a
// full-page image. Backed by pdfcpu.
package assemble

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/encode"
)

// Strategy records which transformation was applied to a page.
type Strategy uint8

const (
	// Preserved copies the source page object graph without alteration.
	Preserved Strategy = iota
	// Rasterized replaces the page with a full-page encoded image.
	Rasterized
)

func (s Strategy) String() string {
	if s == Rasterized {
		return "rasterized"
	}
	return "preserved"
}

// PageOutcome is the per-page decision threaded from classification through
// assembly. Image, Width and Height are set only for Rasterized pages.
type PageOutcome struct {
	Page     int
	Strategy Strategy
	Image    *encode.Image
	Width    float64
	Height   float64
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Compact output: object streams and a cross-reference stream.
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	return conf
}

// Builder is the output document under construction. Pages are appended in
// strict source order and finalized once into an immutable byte stream. Owned
// exclusively by one assembly operation.
type Builder struct {
	src       []byte
	conf      *model.Configuration
	pageCount int
	parts     []*bytes.Buffer
	finalized bool
}

// Open parses src as the copy view of the source document. The parse is
// independent of any query view so page copies see an untouched object graph.
// Zero-page or unparseable input is rejected here.
func Open(src []byte) (*Builder, error) {
	conf := newConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("cannot parse PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("invalid PDF: document has no pages")
	}
	return &Builder{src: src, conf: conf, pageCount: ctx.PageCount}, nil
}

// PageCount returns the source page count.
func (b *Builder) PageCount() int { return b.pageCount }

// AppendCopy copies the source page (0-based) into the output without
// alteration, keeping text, vector graphics, annotations and fonts intact.
func (b *Builder) AppendCopy(page int) error {
	if page < 0 || page >= b.pageCount {
		return fmt.Errorf("copy page %d out of range (document has %d pages)", page+1, b.pageCount)
	}
	var buf bytes.Buffer
	sel := []string{strconv.Itoa(page + 1)}
	if err := api.Trim(bytes.NewReader(b.src), &buf, sel, b.conf); err != nil {
		return fmt.Errorf("copy page %d: %w", page+1, err)
	}
	b.parts = append(b.parts, &buf)
	return nil
}

// AppendImage creates a new page sized to the original viewport (in points)
// and places img to exactly fill it at origin (0,0).
func (b *Builder) AppendImage(img *encode.Image, width, height float64) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("append image: empty image")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("append image: invalid page dimensions %.2f x %.2f", width, height)
	}
	desc := fmt.Sprintf("dim:%.2f %.2f, pos:full", width, height)
	imp, err := api.Import(desc, types.POINTS)
	if err != nil {
		return fmt.Errorf("import description: %w", err)
	}
	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(img.Data)}, imp, b.conf); err != nil {
		return fmt.Errorf("embed page image: %w", err)
	}
	b.parts = append(b.parts, &buf)
	return nil
}

// Finalize merges the appended pages in order into a single immutable byte
// stream. It may be called once; the builder is unusable afterwards.
func (b *Builder) Finalize() ([]byte, error) {
	if b.finalized {
		return nil, fmt.Errorf("builder already finalized")
	}
	b.finalized = true
	if len(b.parts) == 0 {
		return nil, fmt.Errorf("no pages appended")
	}

	if len(b.parts) == 1 {
		return b.parts[0].Bytes(), nil
	}

	rsc := make([]io.ReadSeeker, len(b.parts))
	for i, part := range b.parts {
		rsc[i] = bytes.NewReader(part.Bytes())
	}
	var out bytes.Buffer
	if err := api.MergeRaw(rsc, &out, false, b.conf); err != nil {
		return nil, fmt.Errorf("merge pages: %w", err)
	}
	return out.Bytes(), nil
}

// Close releases the copy view. Safe to call on all exit paths.
func (b *Builder) Close() {
	b.src = nil
	b.parts = nil
}

// Assemble runs a whole assembly in one call: open the copy view, append each
// outcome in order and finalize.
func Assemble(src []byte, outcomes []PageOutcome) ([]byte, error) {
	b, err := Open(src)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	for _, o := range outcomes {
		switch o.Strategy {
		case Preserved:
			if err := b.AppendCopy(o.Page); err != nil {
				return nil, err
			}
		case Rasterized:
			if err := b.AppendImage(o.Image, o.Width, o.Height); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("page %d: unknown strategy %d", o.Page+1, o.Strategy)
		}
	}

	out, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	log.Debug().Int("pages", len(outcomes)).Int("bytes", len(out)).Msg("assembled output document")
	return out, nil
}
