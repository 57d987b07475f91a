// Package service wires ingest, the analysis engine, the queue, the worker
// pool and the store into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	analysisqueue "github.com/okian/leadtime/internal/adapters/mq/queue"
	workerpool "github.com/okian/leadtime/internal/adapters/mq/worker"
	repository "github.com/okian/leadtime/internal/adapters/repository"
	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/internal/domain/dedupe"
	"github.com/okian/leadtime/internal/domain/model"
	"github.com/okian/leadtime/internal/domain/types"
	"github.com/okian/leadtime/pkg/logger"
	"github.com/okian/leadtime/pkg/metrics"
)

const poolShutdownTimeout = 10 * time.Second

// Service implements the API dependencies for the analysis service.
type Service struct {
	mu sync.RWMutex
	// submitMu serialises the dedupe check with the save of a new analysis.
	submitMu sync.Mutex

	// Core components
	store      repository.Store
	index      dedupe.Index
	queue      analysisqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	storeCapacity int
	previewRows   int
	questions     []analysis.Question
	customStore   repository.Store

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     64,
		dedupeSize:    1024,
		storeCapacity: repository.DefaultCapacity,
		previewRows:   analysis.DefaultPreviewRows,
		questions:     analysis.ExtendedQuestions(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting analysis service...")

	if s.customStore != nil {
		s.store = s.customStore
	} else {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithCapacity(s.storeCapacity),
			repository.WithMetricsUpdateInterval(metrics.RefreshInterval()),
		)
	}
	s.index = dedupe.NewInMemoryIndex(dedupe.WithMaxSize(s.dedupeSize))
	q := analysisqueue.NewInMemoryQueue(
		analysisqueue.WithCapacity(s.queueSize),
		analysisqueue.WithBufferSize(s.queueSize),
	)
	s.queue = q

	// Workers outlive request contexts; they stop through Stop.
	s.workerPool = workerpool.NewPool(s.workerCount, q, s, s)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("storeCapacity", s.storeCapacity),
	)

	return nil
}

// Stop drains queued analyses and releases the store. Workers keep
// recording results until the queue is drained; analyses still pending when
// the drain ends are marked failed with ErrStopped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.RLock()
	started, pool, store, index := s.started, s.workerPool, s.store, s.index
	s.mu.RUnlock()

	if !started {
		return nil
	}

	s.logger.Info(ctx, "stopping analysis service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	if err := pool.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if n := s.failPending(context.WithoutCancel(ctx), store, index); n > 0 {
		s.logger.Warn(ctx, "pending analyses failed at shutdown", logger.Int("count", n))
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info(ctx, "analysis service stopped")
	return errors.Join(errs...)
}

// failPending marks every pending analysis failed and releases its
// fingerprint. It returns how many were failed.
func (s *Service) failPending(ctx context.Context, store repository.Store, index dedupe.Index) int {
	list, err := store.List(ctx, max(store.Count(ctx), 1))
	if err != nil {
		s.logger.Error(ctx, "list pending analyses", logger.Error(err))
		return 0
	}

	failed := 0
	for _, a := range list {
		if a.Status != repository.StatusPending {
			continue
		}
		updated, err := store.Update(ctx, a.ID, func(p *repository.Analysis) {
			if p.Status != repository.StatusPending {
				return
			}
			now := time.Now().UTC()
			p.Status = repository.StatusFailed
			p.Error = ErrStopped.Error()
			p.CompletedAt = &now
		})
		if err != nil || updated.Error != ErrStopped.Error() {
			continue
		}
		if owner, ok := index.Lookup(ctx, a.Fingerprint); ok && owner == a.ID {
			index.Forget(ctx, a.Fingerprint)
		}
		metrics.RecordAnalysisFailed()
		failed++
	}
	return failed
}

// components returns the running components or ErrNotStarted.
func (s *Service) components() (repository.Store, dedupe.Index, analysisqueue.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.store, s.index, s.queue, nil
}

// SubmitDataset stores a pending analysis for ds and queues it. A dataset
// identical to one already analysed, or being analysed, returns the
// existing analysis with Duplicate set.
func (s *Service) SubmitDataset(ctx context.Context, name string, ds model.Dataset) (types.Submission, error) {
	store, index, queue, err := s.components()
	if err != nil {
		return types.Submission{}, err
	}

	fp := ds.Fingerprint()
	id := uuid.NewString()

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	owner, seen := index.Remember(ctx, fp, id)
	if seen {
		existing, err := store.Get(ctx, owner)
		if err == nil && existing.Status != repository.StatusFailed {
			metrics.RecordAnalysisDuplicate()
			s.logger.Debug(ctx, "duplicate dataset", logger.String("id", owner), logger.String("name", name))
			return types.Submission{ID: owner, Status: string(existing.Status), Duplicate: true}, nil
		}
		// The owner was evicted or failed; take over the fingerprint.
		index.Forget(ctx, fp)
		if owner, seen = index.Remember(ctx, fp, id); seen {
			return s.duplicateOf(ctx, store, owner)
		}
	}

	now := time.Now().UTC()
	a := repository.Analysis{
		ID:          id,
		Name:        name,
		Status:      repository.StatusPending,
		Records:     ds.Len(),
		Fingerprint: fp,
		CreatedAt:   now,
	}
	if err := store.Save(ctx, a); err != nil {
		index.Forget(ctx, fp)
		if errors.Is(err, repository.ErrFull) {
			return types.Submission{}, fmt.Errorf("%w: %v", ErrBackpressure, err)
		}
		return types.Submission{}, fmt.Errorf("save analysis: %w", err)
	}

	job := model.Job{ID: id, Name: name, Dataset: ds, Submitted: now}
	if !queue.Enqueue(ctx, job) {
		index.Forget(ctx, fp)
		_ = store.Delete(ctx, id)
		return types.Submission{}, ErrBackpressure
	}

	metrics.RecordAnalysisSubmitted()
	metrics.RecordRecordsIngested(ds.Len())
	s.logger.Info(ctx, "analysis submitted",
		logger.String("id", id),
		logger.String("name", name),
		logger.Int("records", ds.Len()),
	)
	return types.Submission{ID: id, Status: string(repository.StatusPending)}, nil
}

func (s *Service) duplicateOf(ctx context.Context, store repository.Store, owner string) (types.Submission, error) {
	existing, err := store.Get(ctx, owner)
	if err != nil {
		return types.Submission{}, fmt.Errorf("resolve duplicate: %w", err)
	}
	metrics.RecordAnalysisDuplicate()
	return types.Submission{ID: owner, Status: string(existing.Status), Duplicate: true}, nil
}

// SubmitSample submits the built-in sample dataset.
func (s *Service) SubmitSample(ctx context.Context) (types.Submission, error) {
	return s.SubmitDataset(ctx, "sample.csv", model.SampleDataset())
}

// Analyze implements worker.Analyzer.
func (s *Service) Analyze(ctx context.Context, job model.Job) (analysis.Report, error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if err := ctx.Err(); err != nil {
		return analysis.Report{}, err
	}

	s.mu.RLock()
	questions, previewRows := s.questions, s.previewRows
	s.mu.RUnlock()

	rep := analysis.BuildReport(job.Dataset,
		analysis.WithQuestions(questions...),
		analysis.WithPreviewRows(previewRows),
	)
	for kind, n := range rep.Skipped {
		metrics.RecordRecordsSkipped(string(kind), n)
	}
	for _, a := range rep.Insufficient() {
		metrics.RecordInsufficientAnswer(a.QuestionID)
	}
	return rep, nil
}

// Complete implements worker.Recorder.
func (s *Service) Complete(ctx context.Context, id string, report analysis.Report) error { //nolint:gocritic // hugeParam
	store, _, _, err := s.components()
	if err != nil {
		return err
	}
	_, err = store.Update(ctx, id, func(a *repository.Analysis) {
		now := time.Now().UTC()
		rep := report
		a.Status = repository.StatusDone
		a.Report = &rep
		a.CompletedAt = &now
	})
	return err
}

// Fail implements worker.Recorder. The fingerprint is released so the same
// data can be submitted again.
func (s *Service) Fail(ctx context.Context, id string, cause error) error {
	store, index, _, err := s.components()
	if err != nil {
		return err
	}
	a, err := store.Update(ctx, id, func(a *repository.Analysis) {
		now := time.Now().UTC()
		a.Status = repository.StatusFailed
		a.Error = cause.Error()
		a.CompletedAt = &now
	})
	if err != nil {
		return err
	}
	if owner, ok := index.Lookup(ctx, a.Fingerprint); ok && owner == id {
		index.Forget(ctx, a.Fingerprint)
	}
	return nil
}

// Get returns the analysis with id, including its report once done.
func (s *Service) Get(ctx context.Context, id string) (repository.Analysis, error) {
	store, _, _, err := s.components()
	if err != nil {
		return repository.Analysis{}, err
	}
	return store.Get(ctx, id)
}

// Report returns the finished report of id, or ErrNotReady while pending.
func (s *Service) Report(ctx context.Context, id string) (analysis.Report, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return analysis.Report{}, err
	}
	if a.Status != repository.StatusDone || a.Report == nil {
		return analysis.Report{}, fmt.Errorf("%w: %s is %s", ErrNotReady, id, a.Status)
	}
	return *a.Report, nil
}

// List returns up to limit analyses, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]types.AnalysisSummary, error) {
	store, _, _, err := s.components()
	if err != nil {
		return nil, err
	}
	list, err := store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]types.AnalysisSummary, len(list))
	for i, a := range list {
		out[i] = types.AnalysisSummary{
			ID:          a.ID,
			Name:        a.Name,
			Status:      string(a.Status),
			Records:     a.Records,
			Error:       a.Error,
			CreatedAt:   a.CreatedAt,
			CompletedAt: a.CompletedAt,
		}
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"storeCapacity": s.storeCapacity,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stored := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedAnalyses"] = stored
		stats["fingerprints"] = s.index.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredAnalyses(stored)
	}

	return stats
}
