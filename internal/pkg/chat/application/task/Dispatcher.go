package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	qport "go-roomchat/internal/infrastructure/queue/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"
)

// Dispatcher submits chat work to the job executor and reports job status.
// Submissions return as soon as the executor accepted the job.
type Dispatcher struct {
	Client    qport.Client
	Inspector qport.Inspector
	Queue     string
	// SeenQueue takes mark-seen jobs so they can be weighted below sends.
	// Empty means Queue.
	SeenQueue string
	Log       zerolog.Logger
}

func NewDispatcher(client qport.Client, inspector qport.Inspector, queue string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{Client: client, Inspector: inspector, Queue: queue, Log: log.With().Str("component", "dispatcher").Logger()}
}

var _ usecase.SeenScheduler = (*Dispatcher)(nil)

// SendDirect queues a direct message from sender to receiver.
func (d *Dispatcher) SendDirect(ctx context.Context, from, to int64, text string) (chat.Job, error) {
	return d.submit(ctx, d.Queue, SendDirectMessageTaskType, SendDirectMessagePayload{From: from, To: to, Text: text})
}

// SendGroup queues a message to a group room.
func (d *Dispatcher) SendGroup(ctx context.Context, from, roomID int64, text string) (chat.Job, error) {
	return d.submit(ctx, d.Queue, SendGroupMessageTaskType, SendGroupMessagePayload{From: from, RoomID: roomID, Text: text})
}

// MarkSeen queues seen-marking of a room for a reader.
func (d *Dispatcher) MarkSeen(ctx context.Context, readerID, roomID int64) (chat.Job, error) {
	queue := d.SeenQueue
	if queue == "" {
		queue = d.Queue
	}
	return d.submit(ctx, queue, MarkSeenTaskType, MarkSeenPayload{ReaderID: readerID, RoomID: roomID})
}

// ScheduleMarkSeen satisfies usecase.SeenScheduler.
func (d *Dispatcher) ScheduleMarkSeen(ctx context.Context, readerID, roomID int64) (string, error) {
	job, err := d.MarkSeen(ctx, readerID, roomID)
	return job.ID, err
}

func (d *Dispatcher) submit(ctx context.Context, queue, taskType string, payload any) (chat.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return chat.Job{}, fmt.Errorf("encode %s payload: %w", taskType, err)
	}

	id, err := d.Client.Enqueue(ctx, qport.Task{Type: taskType, Payload: body}, qport.EnqueueOption{Queue: queue})
	if err != nil {
		return chat.Job{}, fmt.Errorf("%w: enqueue %s: %v", usecase.ErrPersistence, taskType, err)
	}
	// An executor that already ran the job reports its terminal state.
	job, err := d.Status(ctx, id)
	if err != nil {
		job = chat.Job{ID: id, State: chat.JobPending, Meta: jobMeta(taskType, body)}
	}
	d.Log.Debug().Str("job_id", id).Str("task", taskType).Str("queue", queue).
		Bool("finished", job.State.Terminal()).Msg("job enqueued")
	return job, nil
}

// Status reports a job without waiting for it. Unknown ids fail with chat.ErrNotFound.
func (d *Dispatcher) Status(ctx context.Context, jobID string) (chat.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return chat.Job{}, fmt.Errorf("%w: job id is required", chat.ErrInvalidArgument)
	}

	info, err := d.Inspector.Lookup(ctx, jobID)
	if errors.Is(err, qport.ErrJobNotFound) {
		return chat.Job{}, fmt.Errorf("%w: job %s", chat.ErrNotFound, jobID)
	}
	if err != nil {
		return chat.Job{}, fmt.Errorf("%w: job %s: %v", usecase.ErrPersistence, jobID, err)
	}

	job := chat.Job{ID: info.ID, State: chat.JobPending, Meta: jobMeta(info.Type, info.Payload)}
	for k, v := range info.Progress {
		job.Meta[k] = v
	}
	switch info.State {
	case qport.StateSucceeded:
		job.State = chat.JobSuccess
		if len(info.Result) > 0 {
			job.Result = json.RawMessage(info.Result)
		}
	case qport.StateFailed:
		job.State = chat.JobFailure
		job.Error = failure(info)
	}
	return job, nil
}

func failure(info qport.JobInfo) *chat.JobError {
	var je chat.JobError
	if len(info.Result) > 0 && json.Unmarshal(info.Result, &je) == nil && je.Code != "" {
		return &je
	}
	return &chat.JobError{Code: chat.CodeInternal, Message: info.LastErr}
}
