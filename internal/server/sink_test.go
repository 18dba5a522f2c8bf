package server

import (
	"context"
	"os"
	"testing"

	"github.com/local/pdfpress/internal/pipeline"
)

func TestDiskSinkKeepsSameNamedOutputsDistinct(t *testing.T) {
	sink := &DiskSink{Dir: t.TempDir()}
	ctx := context.Background()

	first := &pipeline.Result{Name: "scan.pdf", OutputName: "scan_compressed.pdf", Data: []byte("first payload")}
	second := &pipeline.Result{Name: "scan.pdf", OutputName: "scan_compressed.pdf", Data: []byte("second payload")}

	pathA, _, err := sink.Save(ctx, "job-1", 0, first)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	pathB, _, err := sink.Save(ctx, "job-1", 1, second)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if pathA == pathB {
		t.Fatalf("same-named inputs stored at the same path %q", pathA)
	}
	gotA, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}
	if string(gotA) != "first payload" {
		t.Errorf("item 0 now holds %q, its output was overwritten", gotA)
	}
	gotB, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}
	if string(gotB) != "second payload" {
		t.Errorf("item 1 holds %q", gotB)
	}
}

func TestDiskSinkStripsDirectoryComponents(t *testing.T) {
	sink := &DiskSink{Dir: t.TempDir()}
	res := &pipeline.Result{Name: "a.pdf", OutputName: "nested/dir/a_compressed.pdf", Data: []byte("x")}
	path, _, err := sink.Save(context.Background(), "job-2", 0, res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}
