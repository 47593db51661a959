package port

import (
	"context"
	"errors"
)

// Task represents a background job message with a type and opaque payload bytes.
// Type should be a stable string identifier. Payload encoding is up to callers.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task and returns its result bytes. A non-nil error fails
// the job terminally; result bytes returned alongside it are kept as the
// failure description. Executors never retry.
type Handler func(ctx context.Context, task Task) ([]byte, error)

// EnqueueOption controls enqueue behavior. In-process executors have a single
// pool and ignore the queue name.
type EnqueueOption struct {
	Queue string // logical queue name, empty means the executor default
}

// Progress publishes interim metadata of the running job. Each call replaces
// the previous report.
type Progress func(meta map[string]string)

type progressKey struct{}

// WithProgress attaches report to the context a handler runs with.
func WithProgress(ctx context.Context, report Progress) context.Context {
	return context.WithValue(ctx, progressKey{}, report)
}

// ReportProgress publishes meta for the job running under ctx. It does
// nothing when the executor installed no reporter.
func ReportProgress(ctx context.Context, meta map[string]string) {
	if report, ok := ctx.Value(progressKey{}).(Progress); ok && report != nil {
		report(meta)
	}
}

// Client enqueues tasks for background processing and returns the job id
// without waiting for the task to run.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs background workers that handle tasks.
// Implementations should block in Run until Stop/Shutdown is called or context is canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}

// State is the executor-level lifecycle of a job.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// JobInfo is a point-in-time view of an enqueued job.
type JobInfo struct {
	ID      string
	Type    string
	Payload []byte
	State   State
	Result  []byte // handler result, or the failure description for failed jobs
	LastErr string
	// Progress is the last report of the handler, if any.
	Progress map[string]string
}

// Inspector answers status queries. Lookups never block on job execution.
type Inspector interface {
	// Lookup fails with ErrJobNotFound for unknown or expired ids.
	Lookup(ctx context.Context, id string) (JobInfo, error)
}

// Executor is a complete job backend.
type Executor interface {
	Client
	Server
	Inspector
}

var ErrJobNotFound = errors.New("queue: job not found")
