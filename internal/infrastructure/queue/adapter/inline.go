package adapter

import (
	"context"
	"time"

	"go-roomchat/internal/infrastructure/queue/port"
)

// InlineExecutor runs every task inside Enqueue. The returned job is already
// terminal, which makes it the executor of choice for tests.
type InlineExecutor struct {
	table *jobTable
}

func NewInlineExecutor(retention time.Duration) *InlineExecutor {
	return &InlineExecutor{table: newJobTable(retention)}
}

var _ port.Executor = (*InlineExecutor)(nil)

func (e *InlineExecutor) Register(taskType string, h port.Handler) {
	e.table.register(taskType, h)
}

func (e *InlineExecutor) Enqueue(ctx context.Context, t port.Task, _ ...port.EnqueueOption) (string, error) {
	id, h, err := e.table.add(t)
	if err != nil {
		return "", err
	}
	_ = e.table.run(ctx, id, h, t)
	return id, nil
}

func (e *InlineExecutor) Lookup(_ context.Context, id string) (port.JobInfo, error) {
	return e.table.lookup(id)
}

func (e *InlineExecutor) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (e *InlineExecutor) Stop(context.Context) error { return nil }

func (e *InlineExecutor) Close() error { return nil }
