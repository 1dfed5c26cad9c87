package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work. Jobs sharing an ID coalesce while queued.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// FailureHandler observes a job whose handler returned an error. Jobs run once;
// callers decide whether to enqueue again.
type FailureHandler func(Job, error)

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
	OnFailure  FailureHandler
}

// Queue is an in-memory job dispatcher backed by goroutines.
type Queue struct {
	name      string
	handler   Handler
	onFailure FailureHandler
	workers   int
	logger    *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	queued  map[string]struct{}
	started bool
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:      name,
		handler:   handler,
		onFailure: cfg.OnFailure,
		workers:   cfg.Workers,
		logger:    cfg.Logger.With(zap.String("queue", name)),
		jobs:      make(chan Job, cfg.BufferSize),
		queued:    make(map[string]struct{}),
	}
}

// Start begins worker consumption. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for the running jobs to return. Jobs still
// waiting in the buffer are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", q.Len()))
}

// Enqueue pushes a job. A job whose ID is already waiting is absorbed by it.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	ctx := q.ctx
	if job.ID != "" {
		if _, waiting := q.queued[job.ID]; waiting {
			q.mu.Unlock()
			return nil
		}
		q.queued[job.ID] = struct{}{}
	}
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		q.release(job.ID)
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// Len reports the jobs waiting for a worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queued)
}

func (q *Queue) release(id string) {
	if id == "" {
		return
	}
	q.mu.Lock()
	delete(q.queued, id)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.release(job.ID)
			if err := q.handler(q.ctx, job); err != nil {
				q.logger.Error("job failed", zap.String("job_id", job.ID), zap.String("type", job.Type),
					zap.Duration("waited", time.Since(job.Enqueued)), zap.Error(err))
				if q.onFailure != nil {
					q.onFailure(job, err)
				}
			}
		}
	}
}
