package adapter

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"go-roomchat/internal/infrastructure/queue/port"
)

func TestAsynqConfig_Queues(t *testing.T) {
	cfg := AsynqConfig{Queue: "chat", Queues: map[string]int{"chat_seen": 1, "chat": 6, "archive": 0, "": 3}}
	assert.Equal(t, map[string]int{"chat": 6, "chat_seen": 1, "archive": 1}, cfg.weights())
	assert.Equal(t, []string{"chat", "archive", "chat_seen"}, cfg.queueNames())

	assert.Equal(t, map[string]int{"default": 1}, AsynqConfig{}.weights())
	assert.Equal(t, []string{"default"}, AsynqConfig{}.queueNames())
}

func TestJobInfo_PendingCarriesProgress(t *testing.T) {
	info := jobInfo(&asynq.TaskInfo{
		ID:     "j1",
		Type:   "chat:mark_seen",
		State:  asynq.TaskStateActive,
		Result: []byte(`{"progress":{"current":"2","total":"5"}}`),
	})
	assert.Equal(t, port.StatePending, info.State)
	assert.Equal(t, map[string]string{"current": "2", "total": "5"}, info.Progress)
	assert.Nil(t, info.Result)

	info = jobInfo(&asynq.TaskInfo{ID: "j2", State: asynq.TaskStateCompleted, Result: []byte(`[]`)})
	assert.Equal(t, port.StateSucceeded, info.State)
	assert.Equal(t, []byte(`[]`), info.Result)
	assert.Nil(t, info.Progress)
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		in   asynq.TaskState
		want port.State
	}{
		{asynq.TaskStateCompleted, port.StateSucceeded},
		{asynq.TaskStateArchived, port.StateFailed},
		{asynq.TaskStatePending, port.StatePending},
		{asynq.TaskStateActive, port.StatePending},
		{asynq.TaskStateRetry, port.StatePending},
		{asynq.TaskStateScheduled, port.StatePending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stateOf(tt.in), tt.in.String())
	}
}

func TestAsynqClient_OptionsNeverRetry(t *testing.T) {
	c := &AsynqClient{cfg: AsynqConfig{Queue: "chat", Retention: time.Hour}}

	opts := c.options(nil)
	assert.Contains(t, opts, asynq.Queue("chat"))
	assert.Contains(t, opts, asynq.MaxRetry(0))
	assert.Contains(t, opts, asynq.Retention(time.Hour))

	opts = c.options([]port.EnqueueOption{{Queue: "chat_seen"}})
	assert.Contains(t, opts, asynq.Queue("chat_seen"))
	assert.NotContains(t, opts, asynq.Queue("chat"))
}

func TestAsynqConfig_RequiresRedisURL(t *testing.T) {
	_, err := NewAsynqClient(AsynqConfig{})
	assert.Error(t, err)
}
