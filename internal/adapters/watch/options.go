package watch

import (
	"time"

	"github.com/okian/leadtime/pkg/logger"
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is read.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSheet selects the spreadsheet sheet to read. Empty means the first.
func WithSheet(sheet string) Option {
	return func(w *Watcher) {
		w.sheet = sheet
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}
