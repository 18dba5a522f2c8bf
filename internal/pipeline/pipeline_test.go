package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/local/pdfpress/internal/encode"
	"github.com/local/pdfpress/internal/pdfengine"
)

// fakeDoc is a scripted query view: per-page token lists, fixed viewport.
type fakeDoc struct {
	pages  [][]string
	closed bool
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) TextTokens(page int) ([]string, error) { return d.pages[page], nil }

func (d *fakeDoc) Viewport(int) (float64, float64, error) { return 612, 792, nil }

func (d *fakeDoc) Render(int, float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 10, 12)), nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	docs map[string]*fakeDoc
}

func (o *fakeOpener) Open(data []byte) (pdfengine.Document, error) {
	doc, ok := o.docs[string(data)]
	if !ok {
		return nil, errors.New("unreadable document")
	}
	return doc, nil
}

type fakeBuilder struct {
	pages       int
	ops         []string
	finalizeErr error
	closed      bool
}

func (b *fakeBuilder) PageCount() int { return b.pages }

func (b *fakeBuilder) AppendCopy(page int) error {
	b.ops = append(b.ops, fmt.Sprintf("copy:%d", page))
	return nil
}

func (b *fakeBuilder) AppendImage(img *encode.Image, w, h float64) error {
	b.ops = append(b.ops, fmt.Sprintf("image:%dx%d@%.0fx%.0f", img.Width, img.Height, w, h))
	return nil
}

func (b *fakeBuilder) Finalize() ([]byte, error) {
	if b.finalizeErr != nil {
		return nil, b.finalizeErr
	}
	return []byte("%PDF-out"), nil
}

func (b *fakeBuilder) Close() { b.closed = true }

type fakeBuilderOpener struct {
	builders map[string]*fakeBuilder
}

func (o *fakeBuilderOpener) Open(data []byte) (DocumentBuilder, error) {
	b, ok := o.builders[string(data)]
	if !ok {
		return nil, errors.New("unreadable document")
	}
	return b, nil
}

var (
	textTokens = []string{"plenty", "of", "meaningful", "selectable", "words", "here"}
	scanTokens = []string{"3"}
)

func newTestPipeline(doc *fakeDoc, builder *fakeBuilder, data string) *Pipeline {
	return New(Options{
		Opener:  &fakeOpener{docs: map[string]*fakeDoc{data: doc}},
		Builder: &fakeBuilderOpener{builders: map[string]*fakeBuilder{data: builder}},
	})
}

func TestCompressMixedDocument(t *testing.T) {
	doc := &fakeDoc{pages: [][]string{textTokens, scanTokens, textTokens}}
	builder := &fakeBuilder{pages: 3}
	p := newTestPipeline(doc, builder, "mixed")

	res, err := p.Compress(context.Background(), "report.pdf", []byte("mixed"), 0.8)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if res.Preserved != 2 || res.Rasterized != 1 {
		t.Errorf("preserved=%d rasterized=%d, want 2/1", res.Preserved, res.Rasterized)
	}
	if res.OutputName != "report_compressed.pdf" {
		t.Errorf("output name %q", res.OutputName)
	}
	if res.Size != int64(len(res.Data)) || res.Size == 0 {
		t.Errorf("size %d does not match data length %d", res.Size, len(res.Data))
	}

	wantOps := []string{"copy:0", "image:10x12@612x792", "copy:2"}
	if len(builder.ops) != len(wantOps) {
		t.Fatalf("builder ops %v, want %v", builder.ops, wantOps)
	}
	for i := range wantOps {
		if builder.ops[i] != wantOps[i] {
			t.Errorf("op[%d] = %q, want %q", i, builder.ops[i], wantOps[i])
		}
	}
	if !doc.closed || !builder.closed {
		t.Error("both parse views must be released")
	}
}

func TestCompressAllTextPreservesEveryPage(t *testing.T) {
	doc := &fakeDoc{pages: [][]string{textTokens, textTokens}}
	builder := &fakeBuilder{pages: 2}
	p := newTestPipeline(doc, builder, "text")

	res, err := p.Compress(context.Background(), "text.pdf", []byte("text"), 0.5)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if res.Preserved != 2 || res.Rasterized != 0 {
		t.Errorf("preserved=%d rasterized=%d, want 2/0", res.Preserved, res.Rasterized)
	}
}

func TestCompressInvalidFormat(t *testing.T) {
	p := New(Options{
		Opener:  &fakeOpener{docs: map[string]*fakeDoc{}},
		Builder: &fakeBuilderOpener{builders: map[string]*fakeBuilder{}},
	})
	res, err := p.Compress(context.Background(), "junk.pdf", []byte("junk"), 0.8)
	if err == nil {
		t.Fatal("expected failure")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != FailInvalidFormat {
		t.Errorf("failure kind = %v, want %s", err, FailInvalidFormat)
	}
	if res.OK() {
		t.Error("result must not report success")
	}
}

func TestCompressPageCountMismatch(t *testing.T) {
	doc := &fakeDoc{pages: [][]string{textTokens, textTokens}}
	builder := &fakeBuilder{pages: 3}
	p := newTestPipeline(doc, builder, "skewed")

	_, err := p.Compress(context.Background(), "skewed.pdf", []byte("skewed"), 0.8)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != FailInvalidFormat {
		t.Errorf("disagreeing parse views must fail as %s, got %v", FailInvalidFormat, err)
	}
	if !doc.closed || !builder.closed {
		t.Error("views must be released on the failure path too")
	}
}

func TestCompressZeroPages(t *testing.T) {
	doc := &fakeDoc{pages: nil}
	builder := &fakeBuilder{pages: 0}
	p := newTestPipeline(doc, builder, "empty")

	_, err := p.Compress(context.Background(), "empty.pdf", []byte("empty"), 0.8)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != FailInvalidFormat {
		t.Errorf("zero-page document must fail as %s, got %v", FailInvalidFormat, err)
	}
}

func TestCompressCancelled(t *testing.T) {
	doc := &fakeDoc{pages: [][]string{textTokens}}
	builder := &fakeBuilder{pages: 1}
	p := newTestPipeline(doc, builder, "slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Compress(ctx, "slow.pdf", []byte("slow"), 0.8)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != FailCancelled {
		t.Errorf("cancelled context must fail as %s, got %v", FailCancelled, err)
	}
}

func TestOutputName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"report.pdf", "report_compressed.pdf"},
		{"scan.v2.pdf", "scan.v2_compressed.pdf"},
		{"noext", "noext_compressed.pdf"},
		{"dir/report.pdf", "dir/report_compressed.pdf"},
	}
	for _, tc := range cases {
		if got := OutputName(tc.in); got != tc.want {
			t.Errorf("OutputName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
