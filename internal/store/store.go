package store

import (
	"context"
	"sync"
	"time"
)

// ItemResult is the per-file entry of a batch job, order-preserving.
type ItemResult struct {
	Name       string `json:"name"`
	OutputName string `json:"output_name,omitempty"`
	Success    bool   `json:"success"`
	InputSize  int64  `json:"input_size,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Reduction  int    `json:"reduction,omitempty"`
	Error      string `json:"error,omitempty"`
	LocalPath  string `json:"local_path,omitempty"`
	S3URL      string `json:"s3_url,omitempty"`
}

// Status is the progress snapshot of a batch job.
type Status struct {
	Status  string       `json:"status"`
	Done    int          `json:"done"`
	Total   int          `json:"total"`
	Message string       `json:"message"`
	Start   *time.Time   `json:"start_time,omitempty"`
	End     *time.Time   `json:"end_time,omitempty"`
	Items   []ItemResult `json:"items,omitempty"`
}

// StatusStore persists job progress for polling.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Close() error
}

// MemoryStatus is the in-process default when Redis is not configured.
type MemoryStatus struct {
	mu   sync.RWMutex
	jobs map[string]Status
}

func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{jobs: map[string]Status{}}
}

func (s *MemoryStatus) Set(ctx context.Context, jobID string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = st
	return nil
}

func (s *MemoryStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.jobs[jobID]
	return st, ok, nil
}

func (s *MemoryStatus) Close() error { return nil }
