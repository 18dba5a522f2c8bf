// Package server exposes the recompression pipeline over HTTP: batch upload,
// progress polling and result download.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/admission"
	"github.com/local/pdfpress/internal/pipeline"
	"github.com/local/pdfpress/internal/statuscheck"
	"github.com/local/pdfpress/internal/store"
)

// Compressor is the batch entry point of the pipeline.
type Compressor interface {
	CompressBatch(ctx context.Context, files []pipeline.InputFile, quality float64, onProgress pipeline.ProgressFunc) []pipeline.Result
}

// ResultSink persists successful outputs and returns the stored locations.
// index is the item's position in the batch; implementations must keep
// same-named outputs within one job distinct.
type ResultSink interface {
	Save(ctx context.Context, jobID string, index int, res *pipeline.Result) (localPath, s3URL string, err error)
}

// Options wires the server's dependencies.
type Options struct {
	Compressor     Compressor
	Status         store.StatusStore
	Checker        *statuscheck.Checker
	Sink           ResultSink
	DefaultQuality float64
	QueueSize      int
}

// Server accepts batch jobs and hands them to a single worker, one job at a
// time. Files within a job are processed strictly sequentially by the
// pipeline itself.
type Server struct {
	compressor Compressor
	status     store.StatusStore
	checker    *statuscheck.Checker
	sink       ResultSink
	defaultQ   float64

	jobs chan job
	stop chan struct{}
	done chan struct{}
}

type batchFile struct {
	name string
	data []byte
}

type job struct {
	id      string
	files   []batchFile
	quality float64
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 8
	}
	return &Server{
		compressor: opts.Compressor,
		status:     opts.Status,
		checker:    opts.Checker,
		sink:       opts.Sink,
		defaultQ:   opts.DefaultQuality,
		jobs:       make(chan job, opts.QueueSize),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// RegisterRoutes attaches all handlers to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/health/deps", s.handleDeps)
	mux.HandleFunc("/compress_upload", s.handleUpload)
	mux.HandleFunc("/progress/", s.handleProgress)
	mux.HandleFunc("/download/", s.handleDownload)
}

func (s *Server) handleDeps(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		http.Error(w, "not configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.checker.Summary(r.Context()))
}

// handleUpload accepts a multipart batch: one or more "files" parts plus an
// optional "compression" percent (slider value; quality = (100-percent)/100)
// or a direct "quality" scalar.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	fhs := r.MultipartForm.File["files"]
	if len(fhs) == 0 {
		http.Error(w, "missing files", http.StatusBadRequest)
		return
	}

	// Admission: an over-cap batch is rejected in full, nothing is accepted.
	if err := admission.Admit(0, len(fhs)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := make([]batchFile, 0, len(fhs))
	for _, hdr := range fhs {
		info := admission.FileInfo{
			Name:         hdr.Filename,
			DeclaredType: hdr.Header.Get("Content-Type"),
			Size:         hdr.Size,
		}
		if err := admission.CheckFile(info); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := hdr.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("%s: cannot read upload", hdr.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("%s: cannot read upload", hdr.Filename), http.StatusBadRequest)
			return
		}
		if err := admission.Sniff(data); err != nil {
			http.Error(w, fmt.Sprintf("%s: %v", hdr.Filename, err), http.StatusBadRequest)
			return
		}
		files = append(files, batchFile{name: hdr.Filename, data: data})
	}

	quality := s.quality(r)
	jobID := uuid.NewString()
	start := time.Now()
	_ = s.status.Set(r.Context(), jobID, store.Status{
		Status:  "queued",
		Total:   len(files),
		Message: "queued",
		Start:   &start,
	})

	select {
	case s.jobs <- job{id: jobID, files: files, quality: quality}:
	default:
		http.Error(w, "server busy", http.StatusServiceUnavailable)
		return
	}

	log.Info().Str("job_id", jobID).Int("files", len(files)).Float64("quality", quality).Msg("batch job created")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"job_id":  jobID,
		"files":   len(files),
		"message": "Compression job created",
	})
}

func (s *Server) quality(r *http.Request) float64 {
	if v := r.FormValue("quality"); v != "" {
		if q, err := strconv.ParseFloat(v, 64); err == nil {
			return q
		}
	}
	if v := r.FormValue("compression"); v != "" {
		if pct, err := strconv.Atoi(v); err == nil {
			return float64(100-pct) / 100
		}
	}
	return s.defaultQ
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/progress/")
	st, ok, err := s.status.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job_id":     id,
		"status":     st.Status,
		"done":       st.Done,
		"total":      st.Total,
		"message":    st.Message,
		"start_time": st.Start,
		"end_time":   st.End,
		"items":      st.Items,
	})
}

// handleDownload serves one output PDF: /download/{job_id}/{index}
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/download/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.Error(w, "expected /download/{job_id}/{index}", http.StatusBadRequest)
		return
	}
	jobID := parts[0]
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	st, ok, err := s.status.Get(r.Context(), jobID)
	if err != nil || !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	// Only success and error are terminal; anything else may still produce
	// the requested item.
	if st.Status != "success" && st.Status != "error" {
		http.Error(w, "not ready", http.StatusAccepted)
		return
	}
	if idx >= len(st.Items) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	item := st.Items[idx]
	if !item.Success {
		msg := "result not available"
		if item.Error != "" {
			msg += ": " + item.Error
		}
		http.Error(w, msg, http.StatusNotFound)
		return
	}
	if item.LocalPath == "" {
		http.Error(w, "result not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", admission.PDFMimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.OutputName))
	http.ServeFile(w, r, item.LocalPath)
}
