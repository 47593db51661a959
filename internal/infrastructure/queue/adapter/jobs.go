package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-roomchat/internal/infrastructure/queue/port"
)

// jobTable is the in-process handler registry and status store shared by the
// inline and local executors.
type jobTable struct {
	mu        sync.RWMutex
	handlers  map[string]port.Handler
	jobs      map[string]*jobRecord
	retention time.Duration
	now       func() time.Time
}

type jobRecord struct {
	info       port.JobInfo
	finishedAt time.Time
}

func newJobTable(retention time.Duration) *jobTable {
	return &jobTable{
		handlers:  make(map[string]port.Handler),
		jobs:      make(map[string]*jobRecord),
		retention: retention,
		now:       time.Now,
	}
}

func (t *jobTable) register(taskType string, h port.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[taskType] = h
}

// add records task as pending and returns its id with the handler to run.
func (t *jobTable) add(task port.Task) (string, port.Handler, error) {
	if task.Type == "" {
		return "", nil, fmt.Errorf("queue: task type is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handlers[task.Type]
	if !ok {
		return "", nil, fmt.Errorf("queue: no handler registered for %q", task.Type)
	}
	t.pruneLocked()

	id := uuid.NewString()
	t.jobs[id] = &jobRecord{info: port.JobInfo{
		ID:      id,
		Type:    task.Type,
		Payload: task.Payload,
		State:   port.StatePending,
	}}
	return id, h, nil
}

// reporter returns the progress hook of job id. Reports after the job finished
// are dropped.
func (t *jobTable) reporter(id string) port.Progress {
	return func(meta map[string]string) {
		snapshot := make(map[string]string, len(meta))
		for k, v := range meta {
			snapshot[k] = v
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if rec, ok := t.jobs[id]; ok && rec.info.State == port.StatePending {
			rec.info.Progress = snapshot
		}
	}
}

func (t *jobTable) finish(id string, result []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[id]
	if !ok {
		return
	}
	rec.info.Result = result
	rec.info.State = port.StateSucceeded
	if err != nil {
		rec.info.State = port.StateFailed
		rec.info.LastErr = err.Error()
	}
	rec.finishedAt = t.now()
}

func (t *jobTable) lookup(id string) (port.JobInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.jobs[id]
	if !ok || t.expired(rec) {
		return port.JobInfo{}, fmt.Errorf("%w: %s", port.ErrJobNotFound, id)
	}
	return rec.info, nil
}

func (t *jobTable) expired(rec *jobRecord) bool {
	return t.retention > 0 && !rec.finishedAt.IsZero() && t.now().Sub(rec.finishedAt) > t.retention
}

func (t *jobTable) pruneLocked() {
	for id, rec := range t.jobs {
		if t.expired(rec) {
			delete(t.jobs, id)
		}
	}
}

// run executes job id with its progress hook installed and records the outcome.
func (t *jobTable) run(ctx context.Context, id string, h port.Handler, task port.Task) error {
	result, err := execute(port.WithProgress(ctx, t.reporter(id)), h, task)
	t.finish(id, result, err)
	return err
}

// execute runs h, turning a panic into a failed job.
func execute(ctx context.Context, h port.Handler, task port.Task) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: task %s panicked: %v", task.Type, r)
		}
	}()
	return h(ctx, task)
}
