// Package worker runs the background rescore workers.
package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/gigbridge/matchd/internal/adapters/mq/queue"
	"github.com/gigbridge/matchd/pkg/logger"
	"github.com/gigbridge/matchd/pkg/metrics"
)

// workerShutdownTimeout bounds how long Stop waits per worker.
const workerShutdownTimeout = 5 * time.Second

// Runner executes one rescore job. Implemented by the app service's
// compute path.
type Runner interface {
	Rescore(ctx context.Context, requestID string, force bool) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker consumes jobs until its context or shutdown signal fires.
type Worker struct {
	queue  Queue
	runner Runner
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Named(name)
		}
	}
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, runner Runner, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		runner:   runner,
		name:     "rescore-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("rescore-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	err := w.runner.Rescore(ctx, job.RequestID, job.Force)
	metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "rescore job failed",
			logger.String("requestID", job.RequestID),
			logger.Bool("force", job.Force),
			logger.Error(err),
		)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker

	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates a pool of count workers over the same queue and runner.
func NewPool(count int, q Queue, runner Runner) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers:  make([]*Worker, count),
		shutdown: make(chan struct{}),
		logger:   logger.Named("rescore-pool"),
	}
	for i := 0; i < count; i++ {
		p.workers[i] = NewWorker(q, runner, WithName("rescore-worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	select {
	case <-p.shutdown:
		return
	default:
		close(p.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker shutdown timed out",
				logger.String("worker", w.name))
		}
	}
	metrics.UpdateWorkerCount(0)
}
