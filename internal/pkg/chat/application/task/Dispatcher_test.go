package task

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qadapter "go-roomchat/internal/infrastructure/queue/adapter"
	qport "go-roomchat/internal/infrastructure/queue/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/application/usecase"
	chatadapter "go-roomchat/internal/pkg/chat/persistence/repository/adapter"
	repository "go-roomchat/internal/pkg/chat/persistence/repository/port"
	useradapter "go-roomchat/internal/repository/adapter"
)

type env struct {
	repo       *chatadapter.MemoryChatRepository
	users      *useradapter.MemoryUserRepository
	dispatcher *Dispatcher
}

func newEnv(t *testing.T, exec qport.Executor) *env {
	t.Helper()
	return newEnvWithStore(t, exec, nil)
}

// newEnvWithStore lets mark-seen jobs run against seen instead of the shared
// memory store.
func newEnvWithStore(t *testing.T, exec qport.Executor, seen func(*chatadapter.MemoryChatRepository) repository.ChatRepository) *env {
	t.Helper()
	log := zerolog.Nop()
	repo := chatadapter.NewMemoryChatRepository()
	users := useradapter.NewMemoryUserRepository("user1", "user2", "user3", "user4")

	var seenRepo repository.ChatRepository = repo
	if seen != nil {
		seenRepo = seen(repo)
	}
	handlers := &Handlers{
		SendDirect: usecase.NewSendDirectMessageUseCase(repo, users, nil, log),
		SendGroup:  usecase.NewSendGroupMessageUseCase(repo, users),
		MarkSeen:   usecase.NewMarkSeenUseCase(seenRepo, users),
		Log:        log,
	}
	handlers.Register(exec)

	return &env{repo: repo, users: users, dispatcher: NewDispatcher(exec, exec, "chat", log)}
}

func (e *env) group(t *testing.T, name string, members ...int64) chat.Room {
	t.Helper()
	room, err := e.repo.CreateRoom(context.Background(), chat.Room{CanonicalKey: chat.GroupKey(name), DisplayName: name}, members)
	require.NoError(t, err)
	return room
}

func sentRoomID(t *testing.T, job chat.Job) int64 {
	t.Helper()
	var out usecase.SentMessage
	require.NoError(t, json.Unmarshal(job.Result, &out))
	return out.Room.ID
}

func TestDispatcher_FamilyScenario(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, qadapter.NewInlineExecutor(time.Hour))
	family := e.group(t, "family", 1, 2, 3)

	job, err := e.dispatcher.SendGroup(ctx, 1, family.ID, "hi family")
	require.NoError(t, err)
	assert.Equal(t, chat.JobSuccess, job.State)
	assert.Equal(t, family.ID, sentRoomID(t, job))
	assert.Equal(t, "1", job.Meta["sender_id"])

	unseen, err := e.repo.UnseenMessages(ctx, 2, family.ID)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	assert.Equal(t, "hi family", unseen[0].Text)

	job, err = e.dispatcher.SendGroup(ctx, 4, family.ID, "hello?")
	require.NoError(t, err)
	assert.Equal(t, chat.JobFailure, job.State)
	require.NotNil(t, job.Error)
	assert.Equal(t, chat.CodePermissionDenied, job.Error.Code)

	polled, err := e.dispatcher.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, polled)
}

func TestDispatcher_DirectMessagesShareRoom(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, qadapter.NewInlineExecutor(time.Hour))

	first, err := e.dispatcher.SendDirect(ctx, 1, 2, "hi")
	require.NoError(t, err)
	require.Equal(t, chat.JobSuccess, first.State)
	second, err := e.dispatcher.SendDirect(ctx, 2, 1, "hello")
	require.NoError(t, err)
	require.Equal(t, chat.JobSuccess, second.State)

	assert.Equal(t, sentRoomID(t, first), sentRoomID(t, second))
	assert.Equal(t, map[string]string{
		"task":        SendDirectMessageTaskType,
		"sender_id":   "2",
		"receiver_id": "1",
		"status":      StatusDone,
	}, second.Meta)
}

func TestDispatcher_DirectToUnknownUserFails(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, qadapter.NewInlineExecutor(time.Hour))

	job, err := e.dispatcher.SendDirect(ctx, 1, 404, "hi")
	require.NoError(t, err)
	assert.Equal(t, chat.JobFailure, job.State)
	assert.Equal(t, chat.CodeNotFound, job.Error.Code)
}

func TestDispatcher_MarkSeen(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, qadapter.NewInlineExecutor(time.Hour))
	room := e.group(t, "family", 1, 2)
	_, err := e.dispatcher.SendGroup(ctx, 1, room.ID, "one")
	require.NoError(t, err)
	_, err = e.dispatcher.SendGroup(ctx, 1, room.ID, "two")
	require.NoError(t, err)

	job, err := e.dispatcher.MarkSeen(ctx, 2, room.ID)
	require.NoError(t, err)
	require.Equal(t, chat.JobSuccess, job.State)
	var marked []chat.Message
	require.NoError(t, json.Unmarshal(job.Result, &marked))
	assert.Len(t, marked, 2)
	assert.Equal(t, StatusDone, job.Meta["status"])
	assert.Equal(t, "2", job.Meta["current"])
	assert.Equal(t, "2", job.Meta["total"])

	id, err := e.dispatcher.ScheduleMarkSeen(ctx, 2, room.ID)
	require.NoError(t, err)
	again, err := e.dispatcher.Status(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(again.Result))
}

func TestDispatcher_Status(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, qadapter.NewInlineExecutor(time.Hour))

	_, err := e.dispatcher.Status(ctx, "no-such-job")
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = e.dispatcher.Status(ctx, " ")
	assert.ErrorIs(t, err, chat.ErrInvalidArgument)
}

func TestHandlers_MalformedPayloadFailsJob(t *testing.T) {
	ctx := context.Background()
	exec := qadapter.NewInlineExecutor(time.Hour)
	e := newEnv(t, exec)

	id, err := exec.Enqueue(ctx, qport.Task{Type: SendGroupMessageTaskType, Payload: []byte("{not json")})
	require.NoError(t, err)

	job, err := e.dispatcher.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, chat.JobFailure, job.State)
	assert.Equal(t, chat.CodeInvalidArgument, job.Error.Code)
}

func TestDispatcher_LocalExecutorPollsToTerminal(t *testing.T) {
	ctx := context.Background()
	exec := qadapter.NewLocalExecutor(4, time.Hour, zerolog.Nop())
	e := newEnv(t, exec)
	room := e.group(t, "family", 1, 2)

	job, err := e.dispatcher.SendGroup(ctx, 1, room.ID, "async hi")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		polled, err := e.dispatcher.Status(ctx, job.ID)
		return err == nil && polled.State.Terminal()
	}, 2*time.Second, 5*time.Millisecond)

	polled, err := e.dispatcher.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.JobSuccess, polled.State)
	require.NoError(t, exec.Stop(ctx))
}

func TestFailure_FallsBackToLastError(t *testing.T) {
	je := failure(qport.JobInfo{LastErr: "boom"})
	assert.Equal(t, &chat.JobError{Code: chat.CodeInternal, Message: "boom"}, je)
}

// gatedStore holds MarkSeen until release is closed.
type gatedStore struct {
	*chatadapter.MemoryChatRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) MarkSeen(ctx context.Context, readerID, roomID int64) ([]chat.Message, error) {
	close(g.entered)
	<-g.release
	return g.MemoryChatRepository.MarkSeen(ctx, readerID, roomID)
}

func TestDispatcher_MarkSeenProgressIsPollable(t *testing.T) {
	ctx := context.Background()
	gate := &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
	exec := qadapter.NewLocalExecutor(2, time.Hour, zerolog.Nop())
	e := newEnvWithStore(t, exec, func(repo *chatadapter.MemoryChatRepository) repository.ChatRepository {
		gate.MemoryChatRepository = repo
		return gate
	})
	room := e.group(t, "family", 1, 2)
	for _, text := range []string{"one", "two", "three"} {
		_, err := e.repo.AppendMessage(ctx, chat.Message{RoomID: room.ID, SenderID: ptr(1), Text: text})
		require.NoError(t, err)
	}

	job, err := e.dispatcher.MarkSeen(ctx, 2, room.ID)
	require.NoError(t, err)
	<-gate.entered

	running, err := e.dispatcher.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.JobPending, running.State)
	assert.Equal(t, StatusParsing, running.Meta["status"])
	assert.Equal(t, "0", running.Meta["current"])
	assert.Equal(t, "3", running.Meta["total"])
	assert.Equal(t, "2", running.Meta["reader_id"])

	close(gate.release)
	require.NoError(t, exec.Stop(ctx))

	finished, err := e.dispatcher.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.JobSuccess, finished.State)
	assert.Equal(t, StatusDone, finished.Meta["status"])
	assert.Equal(t, "3", finished.Meta["current"])
}

// queueRecorder captures the queue each task was sent to.
type queueRecorder struct {
	*qadapter.InlineExecutor
	mu     sync.Mutex
	queues map[string]string
}

func (r *queueRecorder) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	r.mu.Lock()
	r.queues[t.Type] = opts[0].Queue
	r.mu.Unlock()
	return r.InlineExecutor.Enqueue(ctx, t, opts...)
}

func TestDispatcher_RoutesMarkSeenToSeenQueue(t *testing.T) {
	ctx := context.Background()
	rec := &queueRecorder{InlineExecutor: qadapter.NewInlineExecutor(time.Hour), queues: map[string]string{}}
	e := newEnv(t, rec)
	room := e.group(t, "family", 1, 2)

	_, err := e.dispatcher.SendGroup(ctx, 1, room.ID, "hi")
	require.NoError(t, err)
	_, err = e.dispatcher.MarkSeen(ctx, 2, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "chat", rec.queues[MarkSeenTaskType])

	e.dispatcher.SeenQueue = "chat_seen"
	_, err = e.dispatcher.MarkSeen(ctx, 2, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "chat", rec.queues[SendGroupMessageTaskType])
	assert.Equal(t, "chat_seen", rec.queues[MarkSeenTaskType])
}

func ptr(v int64) *int64 { return &v }
