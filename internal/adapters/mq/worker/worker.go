// Package worker runs queued analysis jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/model"
	"github.com/okian/leadtime/pkg/logger"
	"github.com/okian/leadtime/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = model.Job

// Analyzer turns a job's dataset into a report.
type Analyzer interface {
	Analyze(ctx context.Context, job Job) (analysis.Report, error)
}

// Recorder stores the outcome of a job.
type Recorder interface {
	Complete(ctx context.Context, id string, report analysis.Report) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and records their outcome.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns when the queue is closed and
// drained, ctx is done, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// Cancelling on return releases the queue's forwarding goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

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
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob analyses one job and records the outcome. A failing job never
// stops the worker.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordQueueProcessingLatency(float64(start.Sub(job.Submitted).Milliseconds()))

	report, err := w.analyze(ctx, job)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordAnalysisFailed()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		metrics.RecordErrorByType("analysis_error", "high")
		w.logger.Error(ctx, "analysis failed",
			logger.String("job", job.ID),
			logger.Error(err),
		)
		if ferr := w.recorder.Fail(ctx, job.ID, err); ferr != nil {
			return fmt.Errorf("record failure of %s: %w", job.ID, ferr)
		}
		return nil
	}

	if err := w.recorder.Complete(ctx, job.ID, report); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record report of %s: %w", job.ID, err)
	}

	metrics.RecordAnalysisCompleted(float64(time.Since(job.Submitted).Milliseconds()))
	w.logger.Debug(ctx, "analysis completed",
		logger.String("job", job.ID),
		logger.Int("records", job.Dataset.Len()),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

func (w *InMemoryWorker) analyze(ctx context.Context, job Job) (report analysis.Report, err error) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return w.analyzer.Analyze(ctx, job)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 uses one worker per CPU.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			analyzer,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx or the pool timeout expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
			_ = worker.Shutdown(stopCtx)
			stop()
		}
	}

	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
