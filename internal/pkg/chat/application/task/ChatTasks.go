package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"go-roomchat/internal/infrastructure/metrics"
	qport "go-roomchat/internal/infrastructure/queue/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"
)

// Queue task names of the chat domain.
const (
	SendDirectMessageTaskType = "chat:send_direct_message"
	SendGroupMessageTaskType  = "chat:send_group_message"
	MarkSeenTaskType          = "chat:mark_seen"
)

// taskTimeout bounds the store work of a single job.
const taskTimeout = 10 * time.Second

// Progress statuses published while a job runs.
const (
	StatusStarted = "started"
	StatusParsing = "parsing"
	StatusDone    = "done"
)

// SendDirectMessagePayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendDirectMessagePayload struct {
	From int64  `json:"from"`
	To   int64  `json:"to"`
	Text string `json:"text"`
}

type SendGroupMessagePayload struct {
	From   int64  `json:"from"`
	RoomID int64  `json:"room_id"`
	Text   string `json:"text"`
}

type MarkSeenPayload struct {
	ReaderID int64 `json:"reader_id"`
	RoomID   int64 `json:"room_id"`
}

// jobMeta describes a job from its type and payload.
func jobMeta(taskType string, payload []byte) map[string]string {
	meta := map[string]string{"task": taskType}
	id := func(v int64) string { return strconv.FormatInt(v, 10) }

	switch taskType {
	case SendDirectMessageTaskType:
		var p SendDirectMessagePayload
		if json.Unmarshal(payload, &p) == nil {
			meta["sender_id"] = id(p.From)
			meta["receiver_id"] = id(p.To)
		}
	case SendGroupMessageTaskType:
		var p SendGroupMessagePayload
		if json.Unmarshal(payload, &p) == nil {
			meta["sender_id"] = id(p.From)
			meta["room_id"] = id(p.RoomID)
		}
	case MarkSeenTaskType:
		var p MarkSeenPayload
		if json.Unmarshal(payload, &p) == nil {
			meta["reader_id"] = id(p.ReaderID)
			meta["room_id"] = id(p.RoomID)
		}
	}
	return meta
}

// Handlers executes chat jobs with the use cases they wrap.
type Handlers struct {
	SendDirect *usecase.SendDirectMessageUseCase
	SendGroup  *usecase.SendGroupMessageUseCase
	MarkSeen   *usecase.MarkSeenUseCase
	Log        zerolog.Logger
}

// Register binds every chat task handler to the provided server.
func (h *Handlers) Register(srv qport.Server) {
	srv.Register(SendDirectMessageTaskType, h.wrap(SendDirectMessageTaskType, func(ctx context.Context, raw []byte) (any, error) {
		var p SendDirectMessagePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.SendDirect.Execute(ctx, usecase.SendDirectMessageInput{SenderID: p.From, ReceiverID: p.To, Text: p.Text})
	}))

	srv.Register(SendGroupMessageTaskType, h.wrap(SendGroupMessageTaskType, func(ctx context.Context, raw []byte) (any, error) {
		var p SendGroupMessagePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.SendGroup.Execute(ctx, usecase.SendGroupMessageInput{SenderID: p.From, RoomID: p.RoomID, Text: p.Text})
	}))

	srv.Register(MarkSeenTaskType, h.wrap(MarkSeenTaskType, func(ctx context.Context, raw []byte) (any, error) {
		var p MarkSeenPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return h.MarkSeen.Execute(ctx, usecase.MarkSeenInput{
			ReaderID: p.ReaderID,
			RoomID:   p.RoomID,
			OnProgress: func(current, total int) {
				qport.ReportProgress(ctx, map[string]string{
					"status":  StatusParsing,
					"current": strconv.Itoa(current),
					"total":   strconv.Itoa(total),
				})
			},
		})
	}))
}

func decode(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: malformed task payload: %v", chat.ErrInvalidArgument, err)
	}
	return nil
}

// wrap turns a use case call into a queue handler: the result is serialized
// on success; on failure the structured chat.JobError is returned as the
// result bytes together with the error. Progress moves from started to done,
// keeping the last counters the task reported.
func (h *Handlers) wrap(taskType string, run func(ctx context.Context, payload []byte) (any, error)) qport.Handler {
	tracer := otel.Tracer("go-roomchat/task")
	log := h.Log.With().Str("component", "chat_task").Str("task", taskType).Logger()

	return func(ctx context.Context, t qport.Task) ([]byte, error) {
		start := time.Now()
		ctx, span := tracer.Start(ctx, taskType)
		defer span.End()
		for k, v := range jobMeta(taskType, t.Payload) {
			span.SetAttributes(attribute.String("job."+k, v))
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, taskTimeout)
		defer cancel()

		jobCtx := ctx
		var last map[string]string
		report := func(meta map[string]string) {
			last = meta
			qport.ReportProgress(jobCtx, meta)
		}
		report(map[string]string{"status": StatusStarted})
		ctx = qport.WithProgress(ctx, report)

		result, err := run(ctx, t.Payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordJob(taskType, string(chat.JobFailure), time.Since(start).Seconds())
			log.Warn().Err(err).Str("code", chat.ErrorCode(err)).Msg("task failed")

			body, _ := json.Marshal(chat.NewJobError(err))
			return body, err
		}

		body, err := json.Marshal(result)
		if err != nil {
			metrics.RecordJob(taskType, string(chat.JobFailure), time.Since(start).Seconds())
			body, _ := json.Marshal(chat.NewJobError(err))
			return body, err
		}
		done := map[string]string{"status": StatusDone}
		for k, v := range last {
			if k != "status" {
				done[k] = v
			}
		}
		report(done)
		metrics.RecordJob(taskType, string(chat.JobSuccess), time.Since(start).Seconds())
		log.Debug().Dur("took", time.Since(start)).Msg("task done")
		return body, nil
	}
}
