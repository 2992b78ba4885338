package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/idozri/vidto-listen/internal/track"
)

// JobType represents the kind of job
type JobType string

const (
	JobExtract JobType = "extract"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job represents a queued subtitle extraction
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ExtractParams are parameters for an extraction job
type ExtractParams struct {
	SessionID          string `json:"session_id"`
	FileID             string `json:"file_id"`
	Language           string `json:"language"` // "auto" or a catalog code
	TranslateToEnglish bool   `json:"translate_to_english"`
}

// ExtractResult is the output of a successful extraction
type ExtractResult struct {
	Tracks []track.Track `json:"tracks"`
}

// JobHandler processes a job and returns a value to store as its result.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) (any, error)
