package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrFull         = errors.New("store full of pending analyses")
)
