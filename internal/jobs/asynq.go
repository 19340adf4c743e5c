package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

// TaskHandler binds a task type to its handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisConnOpt
	Concurrency int
	Logger      zerolog.Logger
	Handlers    []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.RedisOpts == nil {
		return nil, errors.New("jobs: redis options are required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	log := cfg.Logger
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, log: log}, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

// NewClient constructs an asynq client. timeout bounds each import run.
func NewClient(redisOpts asynq.RedisConnOpt, timeout time.Duration) *Client {
	return &Client{client: asynq.NewClient(redisOpts), timeout: timeout}
}

// EnqueueImport places an import task on the default queue. Imports are not retried.
func (c *Client) EnqueueImport(ctx context.Context, p ImportPayload) error {
	task, err := NewImportTask(p)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(0), asynq.TaskID(p.ID)}
	if c.timeout > 0 {
		opts = append(opts, asynq.Timeout(c.timeout))
	}
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
