package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/leadtime/pkg/metrics"
)

// DefaultCapacity is the number of analyses kept when no capacity is set.
const DefaultCapacity = 256

// MemoryStore is a bounded in-memory Store. When full, the oldest finished
// analysis is evicted; pending analyses are never evicted.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Analysis
	order []string // insertion order, oldest first

	capacity              int
	metricsUpdateInterval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]*Analysis),
		capacity:              DefaultCapacity,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Save inserts or replaces a. Inserting into a full store evicts the oldest
// finished analysis, or fails with ErrFull when every analysis is pending.
func (s *MemoryStore) Save(ctx context.Context, a Analysis) error {
	s.mu.Lock()
	if existing, ok := s.byID[a.ID]; ok {
		*existing = a
		s.mu.Unlock()
		return nil
	}
	if len(s.byID) >= s.capacity && !s.evictOldestFinished() {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "full")
		return ErrFull
	}
	cp := a
	s.byID[a.ID] = &cp
	s.order = append(s.order, a.ID)
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(s.Count(ctx))
	return nil
}

// Update applies fn to a copy of the stored analysis and stores the result.
// The id cannot be changed by fn.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Analysis)) (Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Analysis{}, ErrNotFound
	}
	next := *existing
	fn(&next)
	next.ID = id
	*existing = next
	return next, nil
}

// Delete removes id if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(s.Count(ctx))
	return nil
}

// Get returns the analysis with id.
func (s *MemoryStore) Get(_ context.Context, id string) (Analysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Analysis{}, ErrNotFound
	}
	return *a, nil
}

// List returns up to limit analyses, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Analysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.order))
	out := make([]Analysis, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *s.byID[s.order[i]])
	}
	return out, nil
}

// Count returns the number of stored analyses.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// evictOldestFinished must be called with s.mu held.
func (s *MemoryStore) evictOldestFinished() bool {
	for i, id := range s.order {
		if !s.byID[id].Status.Finished() {
			continue
		}
		delete(s.byID, id)
		s.order = append(s.order[:i], s.order[i+1:]...)
		metrics.RecordStoreEviction()
		return true
	}
	return false
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredAnalyses(s.Count(ctx))
			}
		}
	}()
}
