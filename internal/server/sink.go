package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/admission"
	"github.com/local/pdfpress/internal/pipeline"
	"github.com/local/pdfpress/internal/storage"
)

// DiskSink writes outputs under a local result directory and, when an S3
// client is configured, mirrors them to the bucket.
type DiskSink struct {
	Dir        string
	S3         *storage.S3Client
	S3Prefix   string
	S3Password string
}

// Save persists one successful result. The stored name carries the item
// index so same-named inputs within a batch never collide. The local path is
// always written; the S3 URL is empty when no client is configured.
func (d *DiskSink) Save(ctx context.Context, jobID string, index int, res *pipeline.Result) (string, string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create result dir: %w", err)
	}
	name := fmt.Sprintf("%s_%d_%s", jobID, index, filepath.Base(res.OutputName))
	localPath := filepath.Join(d.Dir, name)
	if err := os.WriteFile(localPath, res.Data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write result: %w", err)
	}
	log.Debug().Str("path", localPath).Int("size", len(res.Data)).Msg("saved result locally")

	if d.S3 == nil {
		return localPath, "", nil
	}
	key := strings.TrimSuffix(d.S3Prefix, "/") + "/" + jobID + "/" + fmt.Sprintf("%d_%s", index, filepath.Base(res.OutputName))
	key = strings.TrimPrefix(key, "/")
	url, err := d.S3.UploadFile(ctx, key, res.Data, d.S3Password, admission.PDFMimeType, map[string]string{
		"job-id":        jobID,
		"original-name": res.Name,
	})
	if err != nil {
		// Local copy exists; treat S3 as best effort.
		log.Error().Err(err).Str("key", key).Msg("s3 upload failed")
		return localPath, "", nil
	}
	return localPath, url, nil
}
