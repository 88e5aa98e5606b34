package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/models"
)

// previewSize caps the contact preview returned after an upload.
const previewSize = 10

// ErrorResponse is the error response body
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"` // seconds
}

// CreateCampaignRequest is the request body for POST /api/campaigns
type CreateCampaignRequest struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	ContactIDs []string `json:"contactIds"`
}

// AiMessageRequest is the request body for POST /api/ai-message
type AiMessageRequest struct {
	Channel string `json:"channel"`
	Idea    string `json:"idea"`
}

// AiMessageResponse pairs the stored message with its compliance vector
type AiMessageResponse struct {
	models.AiMessage
	Compliance *models.ComplianceReport `json:"compliance"`
}

// ImageStartRequest is the request body for POST /api/generate-image/start
type ImageStartRequest struct {
	Description string `json:"description"`
}

// ImageStartResponse acknowledges a submitted image job
type ImageStartResponse struct {
	TaskID         string `json:"taskId"`
	OriginalPrompt string `json:"originalPrompt"`
	EnhancedPrompt string `json:"enhancedPrompt"`
	Status         string `json:"status"`
}

// ImageStatusResponse reports one poll of an image job
type ImageStatusResponse struct {
	TaskID         string `json:"taskId"`
	Status         string `json:"status"`
	ImageURL       string `json:"imageUrl,omitempty"`
	EnhancedPrompt string `json:"enhancedPrompt,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CampaignResultsResponse is the response for GET /api/campaigns/{id}/results
type CampaignResultsResponse struct {
	Campaign *models.Campaign       `json:"campaign"`
	Results  []models.EmailResult   `json:"results"`
	Summary  models.DispatchSummary `json:"summary"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadContacts handles POST /api/upload-contacts
func (s *Server) handleUploadContacts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	result, err := s.importer.ImportCSV(file)
	if err != nil {
		s.sendAppError(w, err)
		return
	}

	s.metrics.ContactsImportedTotal.WithLabelValues("valid").Add(float64(result.Valid))
	s.metrics.ContactsImportedTotal.WithLabelValues("invalid").Add(float64(result.Invalid))

	preview := result.Contacts
	if len(preview) > previewSize {
		preview = preview[:previewSize]
	}

	s.sendJSON(w, http.StatusOK, models.ImportResult{
		Contacts:   preview,
		Total:      result.Total,
		Valid:      result.Valid,
		Invalid:    result.Invalid,
		ContactIDs: result.ContactIDs,
	})
}

// handleCreateCampaign handles POST /api/campaigns
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Subject == "" || req.Body == "" {
		s.sendError(w, http.StatusBadRequest, "subject and body are required")
		return
	}
	if len(req.ContactIDs) == 0 {
		s.sendError(w, http.StatusBadRequest, "contactIds is required")
		return
	}

	campaign := s.store.CreateCampaign(req.Subject, req.Body, req.ContactIDs)
	s.sendJSON(w, http.StatusCreated, campaign)
}

// handleListCampaigns handles GET /api/campaigns
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"campaigns": s.store.ListCampaigns(),
	})
}

// handleSendCampaign handles POST /api/campaigns/{id}/send
func (s *Server) handleSendCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := s.dispatcher.Send(r.Context(), id)
	if err != nil {
		s.sendAppError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, summary)
}

// handleCampaignResults handles GET /api/campaigns/{id}/results
func (s *Server) handleCampaignResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign := s.store.GetCampaign(id)
	if campaign == nil {
		s.sendError(w, http.StatusNotFound, "campaign not found")
		return
	}

	results := s.store.ResultsByCampaign(id)
	summary := models.DispatchSummary{Total: len(results)}
	for _, res := range results {
		if res.Status == models.EmailStatusSent {
			summary.SentCount++
		} else {
			summary.FailedCount++
		}
	}

	s.sendJSON(w, http.StatusOK, CampaignResultsResponse{
		Campaign: campaign,
		Results:  results,
		Summary:  summary,
	})
}

// handleAiMessage handles POST /api/ai-message
func (s *Server) handleAiMessage(w http.ResponseWriter, r *http.Request) {
	var req AiMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, report, err := s.generator.Generate(r.Context(), req.Channel, req.Idea)
	if err != nil {
		s.sendAppError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, AiMessageResponse{
		AiMessage:  *msg,
		Compliance: report,
	})
}

// handleImageStart handles POST /api/generate-image/start
func (s *Server) handleImageStart(w http.ResponseWriter, r *http.Request) {
	var req ImageStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.tracker.Submit(req.Description)
	if err != nil {
		s.sendAppError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, ImageStartResponse{
		TaskID:         job.ID,
		OriginalPrompt: job.Description,
		EnhancedPrompt: job.EnhancedPrompt,
		Status:         job.Status,
	})
}

// handleImageStatus handles GET /api/generate-image/status/{taskId}
func (s *Server) handleImageStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	job, err := s.tracker.Status(r.Context(), taskID)
	if err != nil {
		s.sendAppError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, ImageStatusResponse{
		TaskID:         job.ID,
		Status:         job.Status,
		ImageURL:       job.ImageURL,
		EnhancedPrompt: job.EnhancedPrompt,
		Error:          job.Error,
	})
}

// sendJSON writes a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendError writes a JSON error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

// sendAppError maps a taxonomy error to its HTTP status. Rate-limited
// responses carry the provider's suggested retry delay.
func (s *Server) sendAppError(w http.ResponseWriter, err error) {
	status := apperr.StatusCode(err)
	resp := ErrorResponse{Error: err.Error()}

	var rateLimited *apperr.RateLimitedError
	if errors.As(err, &rateLimited) {
		resp.RetryAfter = int(rateLimited.RetryAfter.Seconds())
	}

	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	}

	s.sendJSON(w, status, resp)
}
