// Package pipeline orchestrates per-document recompression: classify each
// page, preserve text-bearing pages verbatim, rasterize and re-encode
// image-only pages, and reassemble a structurally identical output document.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/assemble"
	"github.com/local/pdfpress/internal/classify"
	"github.com/local/pdfpress/internal/encode"
	"github.com/local/pdfpress/internal/metrics"
	"github.com/local/pdfpress/internal/pdfengine"
	"github.com/local/pdfpress/internal/raster"
	"github.com/local/pdfpress/internal/sizefmt"
)

// State tracks a document through the pipeline.
type State string

const (
	StatePending     State = "pending"
	StateParsing     State = "parsing"
	StateClassifying State = "classifying"
	StateTranscoding State = "transcoding"
	StateAssembling  State = "assembling"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// DocumentBuilder is the assembly capability: an output document under
// construction over the copy view of a source.
type DocumentBuilder interface {
	PageCount() int
	AppendCopy(page int) error
	AppendImage(img *encode.Image, width, height float64) error
	Finalize() ([]byte, error)
	Close()
}

// BuilderOpener opens source bytes into a DocumentBuilder.
type BuilderOpener interface {
	Open(data []byte) (DocumentBuilder, error)
}

// pdfcpuBuilderOpener bridges to the pdfcpu-backed assembler.
type pdfcpuBuilderOpener struct{}

func (pdfcpuBuilderOpener) Open(data []byte) (DocumentBuilder, error) {
	b, err := assemble.Open(data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Options configures a Pipeline. Zero values select the go-fitz query engine
// and the pdfcpu assembler.
type Options struct {
	Opener  pdfengine.Opener
	Builder BuilderOpener
	Encode  encode.Options
}

// Pipeline recompresses documents one at a time. A single Pipeline holds no
// per-document state and is safe to reuse sequentially.
type Pipeline struct {
	opener  pdfengine.Opener
	builder BuilderOpener
	enc     encode.Options
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Opener == nil {
		opts.Opener = pdfengine.NewFitzOpener()
	}
	if opts.Builder == nil {
		opts.Builder = pdfcpuBuilderOpener{}
	}
	return &Pipeline{opener: opts.Opener, builder: opts.Builder, enc: opts.Encode}
}

// Result is the outcome of recompressing one file.
type Result struct {
	Name       string
	OutputName string
	Data       []byte
	Size       int64
	InputSize  int64
	Preserved  int
	Rasterized int
	Err        error
}

// OK reports whether the file was recompressed successfully.
func (r *Result) OK() bool { return r.Err == nil }

// Reason returns the failure reason, empty on success.
func (r *Result) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

// OutputName derives the result filename by inserting a _compressed marker
// before the original extension.
func OutputName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name + "_compressed.pdf"
	}
	return strings.TrimSuffix(name, ext) + "_compressed" + ext
}

func clampQuality(q float64) float64 {
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// Compress runs the full per-document pipeline on data and returns a Result.
// The returned error equals Result.Err for convenience; a failure aborts this
// document only.
func (p *Pipeline) Compress(ctx context.Context, name string, data []byte, quality float64) (*Result, error) {
	quality = clampQuality(quality)
	start := time.Now()
	res := &Result{Name: name, OutputName: OutputName(name), InputSize: int64(len(data))}

	out, preserved, rasterized, err := p.run(ctx, name, data, quality)
	res.Preserved = preserved
	res.Rasterized = rasterized
	if err != nil {
		res.Err = err
		metrics.ObserveFile(string(kindOf(err)), time.Since(start))
		log.Error().Err(err).Str("file", name).Msg("recompression failed")
		return res, err
	}

	res.Data = out
	res.Size = int64(len(out))
	metrics.ObserveFile("success", time.Since(start))
	metrics.AddBytesIn(len(data))
	metrics.AddBytesOut(len(out))
	log.Info().
		Str("file", name).
		Str("output", res.OutputName).
		Int("pages_preserved", preserved).
		Int("pages_rasterized", rasterized).
		Str("input_size", sizefmt.Format(res.InputSize)).
		Str("output_size", sizefmt.Format(res.Size)).
		Int("reduction_pct", sizefmt.Reduction(res.InputSize, res.Size)).
		Dur("took", time.Since(start)).
		Msg("recompressed file")
	return res, nil
}

// run walks the per-document state machine. Both parsed views are released on
// every exit path.
func (p *Pipeline) run(ctx context.Context, name string, data []byte, quality float64) (out []byte, preserved, rasterized int, err error) {
	state := StatePending
	transition := func(next State) {
		state = next
		log.Debug().Str("file", name).Str("state", string(state)).Msg("pipeline state")
	}

	// Parsing: two independent read views of the same bytes. The query view
	// serves text extraction and rendering; the copy view stays untouched so
	// the assembler copies a pristine object graph.
	transition(StateParsing)
	doc, err := p.opener.Open(data)
	if err != nil {
		return nil, 0, 0, failure(FailInvalidFormat, 0, err)
	}
	defer doc.Close()

	builder, err := p.builder.Open(data)
	if err != nil {
		return nil, 0, 0, failure(FailInvalidFormat, 0, err)
	}
	defer builder.Close()

	pages := doc.NumPages()
	if pages < 1 {
		return nil, 0, 0, failure(FailInvalidFormat, 0, fmt.Errorf("document has no pages"))
	}
	if bc := builder.PageCount(); bc != pages {
		return nil, 0, 0, failure(FailInvalidFormat, 0, fmt.Errorf("parse views disagree on page count: %d vs %d", pages, bc))
	}

	// Classifying + Transcoding: record a tagged outcome per page so assembly
	// never re-derives the decision.
	transition(StateClassifying)
	outcomes := make([]assemble.PageOutcome, 0, pages)
	for i := 0; i < pages; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, 0, 0, failure(FailCancelled, i+1, cerr)
		}

		if classify.Page(doc, i) {
			outcomes = append(outcomes, assemble.PageOutcome{Page: i, Strategy: assemble.Preserved})
			preserved++
			metrics.IncPage(assemble.Preserved.String())
			continue
		}

		transition(StateTranscoding)
		w, h, verr := doc.Viewport(i)
		if verr != nil {
			return nil, preserved, rasterized, failure(FailRender, i+1, verr)
		}
		buf, rerr := raster.Render(doc, i, quality)
		if rerr != nil {
			return nil, preserved, rasterized, failure(FailRender, i+1, rerr)
		}
		img, eerr := encode.JPEG(buf, quality, p.enc)
		if eerr != nil {
			return nil, preserved, rasterized, failure(FailEncode, i+1, eerr)
		}
		outcomes = append(outcomes, assemble.PageOutcome{
			Page:     i,
			Strategy: assemble.Rasterized,
			Image:    img,
			Width:    w,
			Height:   h,
		})
		rasterized++
		metrics.IncPage(assemble.Rasterized.String())
	}

	// Assembling: append outcomes in strict source order, finalize once.
	transition(StateAssembling)
	for _, o := range outcomes {
		if o.Strategy == assemble.Preserved {
			if cerr := builder.AppendCopy(o.Page); cerr != nil {
				return nil, preserved, rasterized, failure(FailCopy, o.Page+1, cerr)
			}
			continue
		}
		if aerr := builder.AppendImage(o.Image, o.Width, o.Height); aerr != nil {
			return nil, preserved, rasterized, failure(FailAssembly, o.Page+1, aerr)
		}
	}
	out, err = builder.Finalize()
	if err != nil {
		return nil, preserved, rasterized, failure(FailAssembly, 0, err)
	}

	transition(StateDone)
	return out, preserved, rasterized, nil
}

func kindOf(err error) FailureKind {
	if pe, ok := err.(*Error); ok {
		return pe.Kind
	}
	return "error"
}
