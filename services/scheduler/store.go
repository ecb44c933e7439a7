package scheduler

import (
	"context"
	"sync"

	"backtest-service/services/backtest"
)

// Update carries the optional fields of a status transition.
type Update struct {
	ExecutionTime *float64
	Result        *backtest.Result
	Error         string
}

// Store persists jobs. It is the single source of truth for job status.
//
// UpdateStatus is a compare-and-swap: the write applies only when the
// persisted status still equals from, otherwise ErrStatusConflict and the job
// is untouched. This is what keeps cancel and the worker's claim from racing
// each other.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, upd Update) error
}

// MemoryStore is the in-process Store used by tests and single-node
// deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, from, to Status, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status != from {
		return ErrStatusConflict
	}
	job.Status = to
	if upd.ExecutionTime != nil {
		job.ExecutionTime = upd.ExecutionTime
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Error != "" {
		job.Error = upd.Error
	}
	return nil
}
