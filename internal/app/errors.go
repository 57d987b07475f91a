package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("analysis queue is full")
	ErrNotReady     = errors.New("analysis not finished")
	ErrStopped      = errors.New("service stopped before the analysis ran")
)
