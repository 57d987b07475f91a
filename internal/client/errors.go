package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrAnalysisFailed   = errors.New("analysis failed")
)

// APIError is an error response returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets callers match any API error with ErrUnexpectedStatus.
func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}
