package mailer

// SendRequest is the request body for POST /emails
type SendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// SendResponse is the provider's acknowledgement of one send
type SendResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the provider's error body
type ErrorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}
