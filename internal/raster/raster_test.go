package raster

import (
	"errors"
	"image"
	"testing"
)

func TestScaleForQuality(t *testing.T) {
	cases := []struct {
		quality float64
		want    float64
	}{
		{0, 0.5},
		{0.5, 1.25},
		{1, 2.0},
		{-3, 0.5},
		{7, 2.0},
	}
	for _, tc := range cases {
		if got := ScaleForQuality(tc.quality); got != tc.want {
			t.Errorf("ScaleForQuality(%v) = %v, want %v", tc.quality, got, tc.want)
		}
	}
}

type stubDoc struct {
	img       image.Image
	renderErr error
	gotScale  float64
}

func (d *stubDoc) NumPages() int                          { return 1 }
func (d *stubDoc) TextTokens(int) ([]string, error)       { return nil, nil }
func (d *stubDoc) Viewport(int) (float64, float64, error) { return 612, 792, nil }
func (d *stubDoc) Render(_ int, scale float64) (image.Image, error) {
	d.gotScale = scale
	return d.img, d.renderErr
}
func (d *stubDoc) Close() error { return nil }

func TestRender(t *testing.T) {
	doc := &stubDoc{img: image.NewRGBA(image.Rect(0, 0, 765, 990))}
	buf, err := Render(doc, 0, 0.5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.gotScale != 1.25 {
		t.Errorf("engine received scale %v, want 1.25", doc.gotScale)
	}
	if buf.Width != 765 || buf.Height != 990 {
		t.Errorf("buffer is %dx%d, want 765x990", buf.Width, buf.Height)
	}
}

func TestRenderFailure(t *testing.T) {
	doc := &stubDoc{renderErr: errors.New("mupdf error")}
	if _, err := Render(doc, 0, 0.8); err == nil {
		t.Fatal("expected error from failing engine")
	}
}
