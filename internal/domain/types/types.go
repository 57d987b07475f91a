// Package types contains common types used across the application
package types

import "time"

// Submission is the receipt for a submitted dataset.
type Submission struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// AnalysisSummary is the list view of an analysis, without its report.
type AnalysisSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Records     int        `json:"records"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
