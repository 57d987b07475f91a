// Package watch analyses spreadsheets dropped into an inbox directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/leadtime/internal/adapters/ingest"
	"github.com/okian/leadtime/internal/domain/model"
	"github.com/okian/leadtime/internal/domain/types"
	"github.com/okian/leadtime/pkg/logger"
	"github.com/okian/leadtime/pkg/metrics"
)

// Submitter accepts a parsed dataset for analysis and returns its id.
type Submitter interface {
	SubmitDataset(ctx context.Context, name string, ds model.Dataset) (types.Submission, error)
}

// Watcher reads settled .csv and .xlsx files from a directory and submits
// them. Rapid successive writes to one file are coalesced.
type Watcher struct {
	dir       string
	sheet     string
	debounce  time.Duration
	submitter Submitter
	logger    logger.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for dir.
func New(dir string, submitter Submitter, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}
	w := &Watcher{
		dir:       dir,
		debounce:  500 * time.Millisecond,
		submitter: submitter,
		logger:    logger.Get().Named("watch"),
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done. Only setup failures are returned; errors
// for individual files are logged.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox %s: %w", w.dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info(ctx, "watching inbox", logger.String("dir", w.dir), logger.Duration("debounce", w.debounce))

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			metrics.RecordWatchEvent("watch_error")
			w.logger.Error(ctx, "watcher error", logger.Error(err))
		case <-ticker.C:
			w.processSettled(ctx, time.Now())
		}
	}
}

func (w *Watcher) tick() time.Duration {
	t := w.debounce / 5
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if _, err := ingest.FormatOf(event.Name); err != nil {
		return
	}
	w.logger.Debug(ctx, "inbox event", logger.String("file", event.Name), logger.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled submits files whose last event is older than the debounce
// window.
func (w *Watcher) processSettled(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.submitFile(ctx, path)
	}
}

func (w *Watcher) submitFile(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			metrics.RecordWatchEvent("read_error")
			w.logger.Error(ctx, "open inbox file", logger.String("file", path), logger.Error(err))
		}
		return
	}
	defer func() { _ = f.Close() }()

	name := filepath.Base(path)
	ds, err := ingest.Read(name, f, w.sheet)
	if err != nil {
		metrics.RecordWatchEvent("parse_error")
		if format, ferr := ingest.FormatOf(name); ferr == nil {
			metrics.RecordIngestError(string(format))
		}
		w.logger.Warn(ctx, "skipping unreadable inbox file", logger.String("file", path), logger.Error(err))
		return
	}

	sub, err := w.submitter.SubmitDataset(ctx, name, ds)
	if err != nil {
		metrics.RecordWatchEvent("submit_error")
		w.logger.Error(ctx, "submit inbox file", logger.String("file", path), logger.Error(err))
		return
	}
	metrics.RecordWatchEvent("submitted")
	w.logger.Info(ctx, "inbox file submitted",
		logger.String("file", path),
		logger.String("id", sub.ID),
		logger.Bool("duplicate", sub.Duplicate),
		logger.Int("records", ds.Len()),
	)
}
