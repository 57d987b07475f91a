// Package repository keeps analyses and their reports.
package repository

import (
	"context"
	"time"

	"github.com/okian/leadtime/internal/domain/analysis"
)

// Status is the lifecycle state of an analysis.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Finished reports whether the analysis left the pending state.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// Analysis is one submitted dataset and, once done, its report.
type Analysis struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Status      Status           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Records     int              `json:"records"`
	Fingerprint string           `json:"fingerprint"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Report      *analysis.Report `json:"report,omitempty"`
}

// Store provides read/write access to analyses.
type Store interface {
	// Save inserts a, replacing any analysis with the same id.
	Save(ctx context.Context, a Analysis) error

	// Update applies fn to the stored analysis under the store lock.
	// Returns ErrNotFound if id is unknown.
	Update(ctx context.Context, id string, fn func(*Analysis)) (Analysis, error)

	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Get returns ErrNotFound if id is unknown.
	Get(ctx context.Context, id string) (Analysis, error)

	// List returns up to limit analyses, newest first.
	List(ctx context.Context, limit int) ([]Analysis, error)

	// Count returns the number of stored analyses.
	Count(ctx context.Context) int
}
