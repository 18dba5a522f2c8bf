package server

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/pipeline"
	"github.com/local/pdfpress/internal/sizefmt"
	"github.com/local/pdfpress/internal/store"
)

// Start launches the single job worker. Jobs run one at a time; files inside
// a job are compressed in upload order.
func (s *Server) Start() {
	go s.loop()
}

// Stop signals the worker to exit after the current job and waits for it.
func (s *Server) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Server) loop() {
	defer close(s.done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	for {
		select {
		case <-s.stop:
			return
		case j := <-s.jobs:
			s.process(ctx, j)
		}
	}
}

func (s *Server) process(ctx context.Context, j job) {
	start := time.Now()
	st := store.Status{
		Status:  "processing",
		Total:   len(j.files),
		Message: "processing",
		Start:   &start,
	}
	_ = s.status.Set(ctx, j.id, st)

	inputs := make([]pipeline.InputFile, len(j.files))
	for i, f := range j.files {
		inputs[i] = pipeline.InputFile{Name: f.name, Reader: bytes.NewReader(f.data)}
	}

	onProgress := func(done, total int) {
		st.Done = done
		st.Message = fmt.Sprintf("compressed %d of %d files", done, total)
		_ = s.status.Set(ctx, j.id, st)
	}

	results := s.compressor.CompressBatch(ctx, inputs, j.quality, onProgress)

	items := make([]store.ItemResult, len(results))
	succeeded := 0
	for i := range results {
		res := &results[i]
		item := store.ItemResult{Name: res.Name}
		if res.OK() {
			item.Success = true
			item.OutputName = res.OutputName
			item.InputSize = res.InputSize
			item.Size = res.Size
			item.Reduction = sizefmt.Reduction(res.InputSize, res.Size)
			if s.sink != nil {
				localPath, s3URL, err := s.sink.Save(ctx, j.id, i, res)
				if err != nil {
					log.Error().Err(err).Str("job_id", j.id).Str("file", res.Name).Msg("failed to persist result")
					item.Success = false
					item.Error = fmt.Sprintf("failed to persist result: %v", err)
				} else {
					item.LocalPath = localPath
					item.S3URL = s3URL
				}
			}
		} else {
			item.Error = res.Reason()
		}
		if item.Success {
			succeeded++
		}
		items[i] = item
	}

	end := time.Now()
	st.Done = len(results)
	st.End = &end
	st.Items = items
	if succeeded == 0 {
		st.Status = "error"
		st.Message = "all files failed"
	} else {
		st.Status = "success"
		st.Message = fmt.Sprintf("compressed %d of %d files", succeeded, len(results))
	}
	_ = s.status.Set(ctx, j.id, st)

	log.Info().
		Str("job_id", j.id).
		Int("files", len(results)).
		Int("succeeded", succeeded).
		Dur("elapsed", end.Sub(start)).
		Msg("batch job finished")
}
