package model

import "time"

// Job is one unit of analysis work handed from the service to the workers.
// Dataset is captured before enqueueing and never mutated afterwards.
type Job struct {
	ID        string
	Name      string
	Dataset   Dataset
	Submitted time.Time
}
