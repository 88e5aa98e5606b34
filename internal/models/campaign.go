package models

import "time"

// Campaign represents an email campaign
type Campaign struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Recipients  int       `json:"recipients"`
	SentCount   int       `json:"sentCount"`
	FailedCount int       `json:"failedCount"`
	Status      string    `json:"status"` // pending, sending, completed, failed
	CreatedAt   time.Time `json:"createdAt"`
}

// Campaign status constants
const (
	CampaignStatusPending   = "pending"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
	CampaignStatusFailed    = "failed"
)

// EmailResult represents a single per-recipient send outcome, append-only
type EmailResult struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaignId"`
	ContactID  string    `json:"contactId"`
	Email      string    `json:"email"`
	Status     string    `json:"status"` // sent, failed
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EmailResult status constants
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// DispatchSummary is the aggregate outcome of one campaign dispatch
type DispatchSummary struct {
	SentCount   int `json:"sentCount"`
	FailedCount int `json:"failedCount"`
	Total       int `json:"total"`
}
