package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backtest-service/services/backtest"
)

// Runner executes one backtest request. Satisfied by *backtest.Runner.
type Runner interface {
	Run(ctx context.Context, req *backtest.Request) (*backtest.Result, error)
}

// Scheduler runs submitted jobs on a bounded worker pool, highest priority
// (lowest value) first. Job status lives in the Store; completed and failed
// jobs are additionally cached in memory so polling does not hit the store.
type Scheduler struct {
	store   Store
	runner  Runner
	queue   *jobQueue
	workers int
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*Job // terminal jobs only

	active atomic.Int64
	wg     sync.WaitGroup
}

func New(store Store, runner Runner, workers int, logger *zap.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		store:   store,
		runner:  runner,
		queue:   newJobQueue(),
		workers: workers,
		logger:  logger,
		cache:   make(map[string]*Job),
	}
}

// Start launches the worker pool. Workers run until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(worker int) {
			defer s.wg.Done()
			s.workLoop(ctx, worker)
		}(i)
	}
	s.logger.Info("scheduler started", zap.Int("workers", s.workers))
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.queue.Close()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Submit persists a new pending job and enqueues it. Returns the job id.
func (s *Scheduler) Submit(ctx context.Context, req *backtest.Request) (string, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return "", &PersistenceError{Op: "create", Err: err}
	}

	s.queue.Push(job.ID, req.Priority)
	s.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("strategy", req.Strategy.Name),
		zap.Int("priority", req.Priority))

	return job.ID, nil
}

// GetStatus returns the job, consulting the terminal cache before the store.
func (s *Scheduler) GetStatus(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return s.store.Get(ctx, id)
}

// Cancel marks a pending job cancelled. Jobs already running or terminal
// cannot be cancelled. The transition is a single compare-and-swap, so a
// cancel either lands before the worker claims the job (and the job never
// runs) or fails with ErrNotCancellable.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	err := s.store.UpdateStatus(ctx, id, StatusPending, StatusCancelled, Update{})
	switch {
	case err == nil:
		s.logger.Info("job cancelled", zap.String("job_id", id))
		return nil
	case errors.Is(err, ErrStatusConflict):
		return ErrNotCancellable
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return &PersistenceError{Op: "cancel", Err: err}
	}
}

// Stats reports queue depth and in-flight job count.
func (s *Scheduler) Stats() (queued int, active int) {
	return s.queue.Len(), int(s.active.Load())
}

func (s *Scheduler) workLoop(ctx context.Context, worker int) {
	for {
		id, ok := s.queue.Pop()
		if !ok {
			return
		}
		s.processJob(ctx, id, worker)
	}
}

func (s *Scheduler) processJob(ctx context.Context, id string, worker int) {
	// Claim the job with a pending -> running compare-and-swap. A cancel that
	// landed while the job was queued wins the swap and the job never runs.
	if err := s.store.UpdateStatus(ctx, id, StatusPending, StatusRunning, Update{}); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			s.logger.Info("skipping cancelled job", zap.String("job_id", id))
		} else {
			s.logger.Error("claim failed", zap.String("job_id", id), zap.Error(err))
		}
		return
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Error("load claimed job", zap.String("job_id", id), zap.Error(err))
		return
	}

	s.active.Add(1)
	defer s.active.Add(-1)

	s.logger.Info("processing job", zap.String("job_id", id), zap.Int("worker", worker))
	start := time.Now()
	result, runErr := s.runner.Run(ctx, job.Request)
	execTime := time.Since(start).Seconds()

	if runErr != nil {
		s.finishJob(ctx, job, StatusFailed, Update{ExecutionTime: &execTime, Error: runErr.Error()})
		s.logger.Warn("job failed",
			zap.String("job_id", id),
			zap.Float64("execution_time_sec", execTime),
			zap.Error(runErr))
		return
	}

	upd := Update{ExecutionTime: &execTime, Result: result}
	if err := s.updateWithRetry(ctx, id, StatusCompleted, upd); err != nil {
		// Result could not be persisted; surface the job as failed rather
		// than lose the outcome silently.
		perr := &PersistenceError{Op: "store result", Err: err}
		s.finishJob(ctx, job, StatusFailed, Update{ExecutionTime: &execTime, Error: perr.Error()})
		s.logger.Error("result write failed", zap.String("job_id", id), zap.Error(err))
		return
	}

	s.cacheTerminal(job, StatusCompleted, upd)
	s.logger.Info("job completed",
		zap.String("job_id", id),
		zap.Float64("execution_time_sec", execTime))
}

// finishJob persists a terminal state and caches it. Terminal writes always
// transition out of running, which the worker holds exclusively.
func (s *Scheduler) finishJob(ctx context.Context, job *Job, status Status, upd Update) {
	if err := s.updateWithRetry(ctx, job.ID, status, upd); err != nil {
		s.logger.Error("terminal status write failed",
			zap.String("job_id", job.ID), zap.Error(err))
	}
	s.cacheTerminal(job, status, upd)
}

// updateWithRetry retries a status write once before giving up.
func (s *Scheduler) updateWithRetry(ctx context.Context, id string, status Status, upd Update) error {
	err := s.store.UpdateStatus(ctx, id, StatusRunning, status, upd)
	if err == nil {
		return nil
	}
	s.logger.Warn("status write failed, retrying once",
		zap.String("job_id", id), zap.Error(err))
	return s.store.UpdateStatus(ctx, id, StatusRunning, status, upd)
}

func (s *Scheduler) cacheTerminal(job *Job, status Status, upd Update) {
	terminal := &Job{
		ID:            job.ID,
		Status:        status,
		CreatedAt:     job.CreatedAt,
		ExecutionTime: upd.ExecutionTime,
		Result:        upd.Result,
		Error:         upd.Error,
	}
	s.mu.Lock()
	s.cache[job.ID] = terminal
	s.mu.Unlock()
}
