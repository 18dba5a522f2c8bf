// Package admission enforces the pre-pipeline contract on incoming files:
// declared media type, per-file size cap and the batch file cap.
package admission

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// PDFMimeType is the only accepted media type.
	PDFMimeType = "application/pdf"

	// MaxFileBytes caps a single input file at 50 MiB.
	MaxFileBytes = 50 * 1024 * 1024

	// MaxBatchFiles caps the number of concurrently-held files in a batch.
	MaxBatchFiles = 5
)

// FileInfo describes an incoming file before its bytes enter the pipeline.
type FileInfo struct {
	Name         string
	DeclaredType string
	Size         int64
}

// CheckFile validates a single file's declared media type and size.
func CheckFile(f FileInfo) error {
	if f.DeclaredType != PDFMimeType {
		return fmt.Errorf("%s: unsupported media type %q (only %s is accepted)", f.Name, f.DeclaredType, PDFMimeType)
	}
	if f.Size > MaxFileBytes {
		return fmt.Errorf("%s: file exceeds the 50 MiB limit (%d bytes)", f.Name, f.Size)
	}
	return nil
}

// Sniff verifies the actual content is a PDF using magic bytes, not the
// declared type or filename.
func Sniff(data []byte) error {
	mtype := mimetype.Detect(data)
	if !mtype.Is(PDFMimeType) {
		return fmt.Errorf("content detected as %s, not %s", mtype.String(), PDFMimeType)
	}
	return nil
}

// Admit checks the batch cap for adding incoming files while held files are
// already present. An over-cap add is rejected in full with one aggregate
// error: no partial acceptance.
func Admit(held, incoming int) error {
	if incoming < 1 {
		return fmt.Errorf("no files to add")
	}
	if held+incoming > MaxBatchFiles {
		return fmt.Errorf("cannot add %d file(s): batch is limited to %d files (%d already held)", incoming, MaxBatchFiles, held)
	}
	return nil
}
