package runs

import "time"

// Status captures the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID            string
	Topic         string
	Prompt        string
	Title         string
	Status        Status
	ErrorMessage  string
	VideoPath     string
	ThumbnailPath string
	MetadataPath  string
	Segments      int
	VideoSeconds  float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
