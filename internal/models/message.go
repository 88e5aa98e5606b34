package models

import "time"

// Message channels for generated marketing copy
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// AiMessage represents one generated marketing message, immutable after creation
type AiMessage struct {
	ID             string    `json:"id"`
	Channel        string    `json:"channel"` // whatsapp, sms
	Idea           string    `json:"idea"`
	Text           string    `json:"text"`
	CharacterCount int       `json:"characterCount"`
	WordCount      int       `json:"wordCount"`
	IsCompliant    bool      `json:"isCompliant"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ComplianceReport holds the independent probes whose conjunction
// determines overall compliance
type ComplianceReport struct {
	HasOptOut       bool `json:"hasOptOut"`
	HasBusinessName bool `json:"hasBusinessName"`
	HasCallToAction bool `json:"hasCallToAction"`
	HasLocation     bool `json:"hasLocation"`
	WithinLength    bool `json:"withinLength"`
	IsCompliant     bool `json:"isCompliant"`
}
