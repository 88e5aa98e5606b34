// Package imagegen is the asynchronous image-generation provider
// adapter. Provider quirks, including its inconsistent error payloads and
// rate-limit signaling, stay behind this package so the job tracker never
// branches on provider-specific shapes.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
)

// defaultRetryAfter is used when a 429 carries no Retry-After header.
const defaultRetryAfter = 30 * time.Second

// Client is an image-generation API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new image provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// request performs an HTTP request to the image API. A 429 becomes a
// RateLimitedError carrying the suggested retry delay.
func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &apperr.RateLimitedError{RetryAfter: retryAfter(resp)}
	}

	if resp.StatusCode >= 400 {
		var errResp StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errResp.ErrorMessage())
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Generate submits a prompt to the asynchronous generation endpoint and
// returns the provider's job handle.
func (c *Client) Generate(ctx context.Context, prompt string) (*GenerateResponse, error) {
	var resp GenerateResponse
	req := GenerateRequest{Prompt: prompt}
	if err := c.request(ctx, http.MethodPost, "/v1/generations", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus polls the status of a generation task.
func (c *Client) GetStatus(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.request(ctx, http.MethodGet, "/v1/generations/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// retryAfter reads the Retry-After header in seconds, falling back to
// the default.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
