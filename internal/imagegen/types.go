package imagegen

import "encoding/json"

// Generation statuses reported by the provider. Anything else is treated
// as still in flight.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// GenerateRequest is the request body for POST /v1/generations
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse acknowledges an accepted generation task
type GenerateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusResponse is the provider's status report for one task. The error
// payload shape is inconsistent across response variants, so every
// plausible field is captured and resolved by ErrorMessage.
type StatusResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`

	Error   json.RawMessage `json:"error,omitempty"`
	Detail  string          `json:"detail,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorMessage resolves the provider's error text by probing candidate
// fields in order and falling back to a generic message.
func (r *StatusResponse) ErrorMessage() string {
	if len(r.Error) > 0 {
		// error may be a plain string or an object with a message field
		var s string
		if err := json.Unmarshal(r.Error, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if r.Detail != "" {
		return r.Detail
	}
	if r.Message != "" {
		return r.Message
	}
	return "image generation failed"
}
