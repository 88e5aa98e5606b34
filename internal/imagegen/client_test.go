package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/generations" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "a red bicycle" {
			t.Errorf("Prompt = %q", req.Prompt)
		}

		json.NewEncoder(w).Encode(GenerateResponse{ID: "task-1", Status: "IN_QUEUE"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	resp, err := client.Generate(context.Background(), "a red bicycle")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.ID != "task-1" || resp.Status != "IN_QUEUE" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generations/task-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(StatusResponse{
			ID:     "task-1",
			Status: StatusCompleted,
			Output: []string{"https://img.example.com/1.png"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	resp, err := client.GetStatus(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if resp.Status != StatusCompleted || len(resp.Output) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRateLimitWithRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.GetStatus(context.Background(), "task-1")

	var rateLimited *apperr.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rateLimited.RetryAfter != 15*time.Second {
		t.Errorf("RetryAfter = %v, want 15s", rateLimited.RetryAfter)
	}
}

func TestRateLimitWithoutHeaderUsesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.GetStatus(context.Background(), "task-1")

	var rateLimited *apperr.RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rateLimited.RetryAfter != defaultRetryAfter {
		t.Errorf("RetryAfter = %v, want %v", rateLimited.RetryAfter, defaultRetryAfter)
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("http://x", "").Configured() {
		t.Error("client without key should not be configured")
	}
	if !NewClient("http://x", "k").Configured() {
		t.Error("client with key should be configured")
	}
}

func TestErrorMessageShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string error", `{"status":"FAILED","error":"bad prompt"}`, "bad prompt"},
		{"object error", `{"status":"FAILED","error":{"message":"quota exceeded"}}`, "quota exceeded"},
		{"detail field", `{"status":"FAILED","detail":"content rejected"}`, "content rejected"},
		{"message field", `{"status":"FAILED","message":"internal error"}`, "internal error"},
		{"nothing", `{"status":"FAILED"}`, "image generation failed"},
		{"error wins over detail", `{"status":"FAILED","error":"first","detail":"second"}`, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp StatusResponse
			if err := json.Unmarshal([]byte(tt.body), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := resp.ErrorMessage(); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
