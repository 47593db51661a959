package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"go-roomchat/internal/infrastructure/queue/port"
)

// AsynqConfig carries the Redis connection and queue settings shared by the
// asynq client, server and inspector.
type AsynqConfig struct {
	RedisURL    string
	Queue       string
	Concurrency int
	Retention   time.Duration
	// Queues is the weighted set the server consumes and status lookups
	// search. Queue is always part of it.
	Queues map[string]int
}

func (c AsynqConfig) redisOpt() (asynq.RedisConnOpt, error) {
	if c.RedisURL == "" {
		return nil, errors.New("asynq: redis url is empty")
	}
	opt, err := asynq.ParseRedisURI(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return opt, nil
}

func (c AsynqConfig) queue() string {
	if c.Queue == "" {
		return "default"
	}
	return c.Queue
}

func (c AsynqConfig) weights() map[string]int {
	out := map[string]int{c.queue(): 1}
	for name, w := range c.Queues {
		if name == "" {
			continue
		}
		if w <= 0 {
			w = 1
		}
		out[name] = w
	}
	return out
}

// queueNames lists the default queue first, then the rest by name.
func (c AsynqConfig) queueNames() []string {
	names := []string{c.queue()}
	for name := range c.weights() {
		if name != c.queue() {
			names = append(names, name)
		}
	}
	sort.Strings(names[1:])
	return names
}

// ===================== Client =====================

// AsynqClient implements port.Client and port.Inspector using
// github.com/hibiken/asynq and Redis as the backing store.
type AsynqClient struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	cfg       AsynqConfig
}

func NewAsynqClient(cfg AsynqConfig) (*AsynqClient, error) {
	opt, err := cfg.redisOpt()
	if err != nil {
		return nil, err
	}
	return &AsynqClient{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		cfg:       cfg,
	}, nil
}

var (
	_ port.Client    = (*AsynqClient)(nil)
	_ port.Inspector = (*AsynqClient)(nil)
)

func (a *AsynqClient) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("asynq: task type is required")
	}
	info, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload), a.options(opts)...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// options maps the port option onto asynq. Jobs never retry and keep their
// result for the configured retention so status lookups can find them.
func (a *AsynqClient) options(opts []port.EnqueueOption) []asynq.Option {
	queue := a.cfg.queue()
	if len(opts) > 0 && opts[0].Queue != "" {
		queue = opts[0].Queue
	}

	out := []asynq.Option{asynq.Queue(queue), asynq.MaxRetry(0)}
	if a.cfg.Retention > 0 {
		out = append(out, asynq.Retention(a.cfg.Retention))
	}
	return out
}

// Lookup searches every configured queue, the default one first.
func (a *AsynqClient) Lookup(_ context.Context, id string) (port.JobInfo, error) {
	for _, queue := range a.cfg.queueNames() {
		info, err := a.inspector.GetTaskInfo(queue, id)
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		if err != nil {
			return port.JobInfo{}, err
		}
		return jobInfo(info), nil
	}
	return port.JobInfo{}, fmt.Errorf("%w: %s", port.ErrJobNotFound, id)
}

// progressEnvelope is what a running handler stores in the result slot until
// its final result overwrites it.
type progressEnvelope struct {
	Progress map[string]string `json:"progress"`
}

func jobInfo(info *asynq.TaskInfo) port.JobInfo {
	out := port.JobInfo{
		ID:      info.ID,
		Type:    info.Type,
		Payload: info.Payload,
		State:   stateOf(info.State),
		Result:  info.Result,
		LastErr: info.LastErr,
	}
	if out.State == port.StatePending {
		var env progressEnvelope
		if len(info.Result) > 0 && json.Unmarshal(info.Result, &env) == nil {
			out.Progress = env.Progress
		}
		out.Result = nil
	}
	return out
}

// stateOf collapses asynq's task states. With MaxRetry(0) a failed task goes
// straight to the archive.
func stateOf(s asynq.TaskState) port.State {
	switch s {
	case asynq.TaskStateCompleted:
		return port.StateSucceeded
	case asynq.TaskStateArchived:
		return port.StateFailed
	default:
		return port.StatePending
	}
}

func (a *AsynqClient) Close() error {
	return errors.Join(a.client.Close(), a.inspector.Close())
}

// ===================== Server =====================

// AsynqServer implements port.Server using github.com/hibiken/asynq
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

func NewAsynqServer(cfg AsynqConfig, log zerolog.Logger) (*AsynqServer, error) {
	opt, err := cfg.redisOpt()
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	log = log.With().Str("component", "asynq").Logger()
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      cfg.weights(),
		Logger:      asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Warn().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})
	return &AsynqServer{server: srv, mux: asynq.NewServeMux(), log: log}, nil
}

var _ port.Server = (*AsynqServer)(nil)

func (s *AsynqServer) Register(taskType string, h port.Handler) {
	s.mux.HandleFunc(taskType, asynqHandler(h, s.log))
}

// asynqHandler stores progress reports and then the handler result on the
// task. Failures are archived at once so a job reaches a terminal state after
// its first attempt.
func asynqHandler(h port.Handler, log zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		w := t.ResultWriter()
		ctx = port.WithProgress(ctx, func(meta map[string]string) {
			if w == nil {
				return
			}
			body, err := json.Marshal(progressEnvelope{Progress: meta})
			if err == nil {
				_, err = w.Write(body)
			}
			if err != nil {
				log.Debug().Err(err).Str("type", t.Type()).Msg("progress not stored")
			}
		})

		result, err := execute(ctx, h, port.Task{Type: t.Type(), Payload: t.Payload()})
		if len(result) > 0 && w != nil {
			if _, werr := w.Write(result); werr != nil {
				return fmt.Errorf("asynq: write result: %w", werr)
			}
		}
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return nil
	}
}

// Run starts the server and blocks until the context is canceled, then gracefully shuts down.
func (s *AsynqServer) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	s.server.Shutdown()
	return nil
}

// Stop gracefully shuts down the server.
func (s *AsynqServer) Stop(context.Context) error {
	s.server.Shutdown()
	return nil
}

// ===================== Executor =====================

// AsynqExecutor bundles client, inspector and server into a port.Executor.
// The server only processes tasks once Run is called.
type AsynqExecutor struct {
	*AsynqClient
	*AsynqServer
}

func NewAsynqExecutor(cfg AsynqConfig, log zerolog.Logger) (*AsynqExecutor, error) {
	client, err := NewAsynqClient(cfg)
	if err != nil {
		return nil, err
	}
	server, err := NewAsynqServer(cfg, log)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &AsynqExecutor{AsynqClient: client, AsynqServer: server}, nil
}

var _ port.Executor = (*AsynqExecutor)(nil)

// ===================== Logging =====================

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
