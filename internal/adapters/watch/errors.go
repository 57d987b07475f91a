package watch

import "errors"

// Sentinel kinds for watcher errors.
var (
	ErrNoDirectory = errors.New("inbox directory not set")
)
