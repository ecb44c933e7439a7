// Package scheduler queues backtest jobs by priority, runs them on a bounded
// worker pool and persists their status lifecycle.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"backtest-service/services/backtest"
)

// Status is the persisted job state.
//
// Transitions: pending -> running -> completed | failed, and
// pending -> cancelled. Terminal states never change again.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job is a persisted backtest job. A terminal job carries exactly one of
// Result (completed) or Error (failed); cancelled jobs carry neither.
type Job struct {
	ID            string            `json:"job_id"`
	Request       *backtest.Request `json:"request,omitempty"`
	Status        Status            `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	ExecutionTime *float64          `json:"execution_time,omitempty"` // seconds
	Result        *backtest.Result  `json:"results,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// ErrStatusConflict is returned when a transition's expected current status
// does not match the persisted one. The job was not modified.
var ErrStatusConflict = errors.New("job status changed")

// ErrNotCancellable is returned when Cancel hits a job past pending.
var ErrNotCancellable = errors.New("job is not pending")

// PersistenceError wraps a job store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("job store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
