package pipeline

import (
	"context"
	"io"

	"github.com/local/pdfpress/internal/metrics"
)

// InputFile is a named byte source entering a batch.
type InputFile struct {
	Name   string
	Reader io.Reader
}

// ProgressFunc is invoked once per file, synchronously, after that file's
// attempt concludes (success or failure).
type ProgressFunc func(completed, total int)

// CompressBatch processes files strictly in input order, one at a time. Each
// file's failure is recorded without aborting the remaining files; the result
// sequence has the same length and order as the input.
func (p *Pipeline) CompressBatch(ctx context.Context, files []InputFile, quality float64, onProgress ProgressFunc) []Result {
	total := len(files)
	metrics.SetBatchFiles(total)
	defer metrics.SetBatchFiles(0)

	results := make([]Result, 0, total)
	for i, f := range files {
		res := p.compressInput(ctx, f, quality)
		results = append(results, *res)
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	return results
}

func (p *Pipeline) compressInput(ctx context.Context, f InputFile, quality float64) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{
			Name:       f.Name,
			OutputName: OutputName(f.Name),
			Err:        failure(FailCancelled, 0, err),
		}
	}

	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return &Result{
			Name:       f.Name,
			OutputName: OutputName(f.Name),
			Err:        failure(FailRead, 0, err),
		}
	}

	res, _ := p.Compress(ctx, f.Name, data, quality)
	return res
}
