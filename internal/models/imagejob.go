package models

import "time"

// ImageJob statuses. The pending/processing values mirror the provider's
// raw status while a generation is in flight; completed and failed are
// terminal and never regress.
const (
	JobStatusCreated      = "created"
	JobStatusInitializing = "initializing"
	JobStatusPending      = "pending"
	JobStatusProcessing   = "processing"
	JobStatusCompleted    = "completed"
	JobStatusFailed       = "failed"
)

// ImageJob tracks one asynchronous image generation task
type ImageJob struct {
	ID             string    `json:"taskId"`
	Description    string    `json:"originalPrompt"`
	EnhancedPrompt string    `json:"enhancedPrompt,omitempty"`
	ProviderJobID  string    `json:"-"`
	Status         string    `json:"status"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastPolledAt   time.Time `json:"-"`
}

// Terminal reports whether the job can no longer change state.
func (j *ImageJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
