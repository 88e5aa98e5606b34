package models

import "time"

// Contact represents a single imported contact
type Contact struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsValid    bool      `json:"isValid"`
	CampaignID string    `json:"campaignId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ImportResult holds the outcome of a contact import
type ImportResult struct {
	Contacts   []Contact `json:"contacts"`
	Total      int       `json:"total"`
	Valid      int       `json:"valid"`
	Invalid    int       `json:"invalid"`
	ContactIDs []string  `json:"contactIds"`
}
