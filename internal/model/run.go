package model

import "time"

// RunStatus represents the current state of a reclassification run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProcessing RunStatus = "processing"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run represents a single reclassification run over one input file.
type Run struct {
	ID          string    `json:"id"`
	InputFile   string    `json:"input_file"`
	OutputFile  string    `json:"output_file,omitempty"`
	Status      RunStatus `json:"status"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
	ElapsedSecs float64   `json:"elapsed_secs,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
