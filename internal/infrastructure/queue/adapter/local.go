package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"go-roomchat/internal/infrastructure/queue/port"
)

var ErrExecutorClosed = errors.New("queue: executor is closed")

// LocalExecutor runs tasks on background goroutines, at most concurrency at a
// time. Enqueue returns as soon as the job is recorded.
type LocalExecutor struct {
	table *jobTable
	sem   *semaphore.Weighted
	log   zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalExecutor(concurrency int, retention time.Duration, log zerolog.Logger) *LocalExecutor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &LocalExecutor{
		table: newJobTable(retention),
		sem:   semaphore.NewWeighted(int64(concurrency)),
		log:   log.With().Str("component", "local_executor").Logger(),
	}
}

var _ port.Executor = (*LocalExecutor)(nil)

func (e *LocalExecutor) Register(taskType string, h port.Handler) {
	e.table.register(taskType, h)
}

func (e *LocalExecutor) Enqueue(ctx context.Context, t port.Task, _ ...port.EnqueueOption) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ErrExecutorClosed
	}

	id, h, err := e.table.add(t)
	if err != nil {
		return "", err
	}

	// Jobs outlive the request that enqueued them.
	jobCtx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = e.sem.Acquire(context.Background(), 1)
		defer e.sem.Release(1)

		if err := e.table.run(jobCtx, id, h, t); err != nil {
			e.log.Warn().Err(err).Str("job_id", id).Str("type", t.Type).Msg("job failed")
		}
	}()
	return id, nil
}

func (e *LocalExecutor) Lookup(_ context.Context, id string) (port.JobInfo, error) {
	return e.table.lookup(id)
}

// Run blocks until ctx is canceled, then drains in-flight jobs.
func (e *LocalExecutor) Run(ctx context.Context) error {
	<-ctx.Done()
	return e.Stop(context.Background())
}

// Stop rejects new jobs and waits for running ones until ctx expires.
func (e *LocalExecutor) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *LocalExecutor) Close() error {
	return e.Stop(context.Background())
}
