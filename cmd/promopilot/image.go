package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/poll"
)

var imageServerURL string

var imageCmd = &cobra.Command{
	Use:   "image <description>",
	Short: "Submit an image generation job and poll it to completion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImage,
}

func init() {
	imageCmd.Flags().StringVar(&imageServerURL, "server", "http://localhost:8080", "PromoPilot server URL")
}

type imageStartResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

type imageStatusResponse struct {
	TaskID     string `json:"taskId"`
	Status     string `json:"status"`
	ImageURL   string `json:"imageUrl"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

func runImage(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")
	client := &http.Client{Timeout: 30 * time.Second}
	ctx := cmd.Context()

	task, err := startImageJob(ctx, client, description)
	if err != nil {
		return err
	}
	fmt.Printf("job %s submitted\n", task.TaskID)

	var final imageStatusResponse
	err = poll.Run(ctx, poll.DefaultConfig(), func(ctx context.Context) (bool, error) {
		status, err := pollImageJob(ctx, client, task.TaskID)
		if err != nil {
			return false, err
		}
		fmt.Printf("status: %s\n", status.Status)
		if status.Status == "completed" || status.Status == "failed" {
			final = *status
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	if final.Status == "failed" {
		return fmt.Errorf("generation failed: %s", final.Error)
	}
	fmt.Printf("image ready: %s\n", final.ImageURL)
	return nil
}

func startImageJob(ctx context.Context, client *http.Client, description string) (*imageStartResponse, error) {
	body, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imageServerURL+"/api/generate-image/start", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}

	var task imageStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &task, nil
}

func pollImageJob(ctx context.Context, client *http.Client, taskID string) (*imageStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageServerURL+"/api/generate-image/status/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		var status imageStatusResponse
		retryAfter := 30 * time.Second
		if err := json.NewDecoder(resp.Body).Decode(&status); err == nil && status.RetryAfter > 0 {
			retryAfter = time.Duration(status.RetryAfter) * time.Second
		}
		return nil, &apperr.RateLimitedError{RetryAfter: retryAfter}
	}
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}

	var status imageStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", body.Error)
}
