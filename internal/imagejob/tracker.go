// Package imagejob tracks asynchronous image-generation jobs. Job
// creation is instant; the expensive work (prompt enhancement plus
// provider submission) runs lazily on the first status poll, exactly
// once, guarded by the created->initializing compare-and-set.
package imagejob

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/imagegen"
	"github.com/oxylo/promopilot/internal/llm"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/models"
	"github.com/oxylo/promopilot/internal/store"
)

// enhancementPrompt turns a raw description into a detailed visual
// prompt tuned for marketing imagery.
const enhancementPrompt = `You turn short product descriptions into detailed prompts for an image generation model.
Describe a single striking marketing visual: subject, setting, lighting, mood, composition and style.
Keep it under 120 words. Return only the prompt text.`

// ImageProvider is the asynchronous generation API. *imagegen.Client
// implements it.
type ImageProvider interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (*imagegen.GenerateResponse, error)
	GetStatus(ctx context.Context, id string) (*imagegen.StatusResponse, error)
}

// Completer produces the prompt enhancement. *llm.Client implements it.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req *llm.ChatRequest) (string, error)
}

// Tracker owns the image job lifecycle.
type Tracker struct {
	store     *store.Store
	images    ImageProvider
	completer Completer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Tracker.
func New(s *store.Store, images ImageProvider, completer Completer, m *metrics.Metrics, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:     s,
		images:    images,
		completer: completer,
		metrics:   m,
		logger:    logger.With("component", "imagejob"),
	}
}

// Submit creates a tracked job and returns immediately. No provider is
// contacted, so submission cannot fail on an upstream outage.
func (t *Tracker) Submit(description string) (*models.ImageJob, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperr.NewValidation("description is required")
	}
	if !t.images.Configured() {
		return nil, apperr.NewServiceUnavailable("image provider")
	}

	job := t.store.CreateImageJob(description)
	t.metrics.ImageJobTransitionsTotal.WithLabelValues(models.JobStatusCreated).Inc()
	t.logger.Info("image job created", "task_id", job.ID)
	return job, nil
}

// Status advances and reports one job. The first poll performs the lazy
// initialization; later polls query the provider until the job reaches a
// terminal state, after which the stored result is returned unchanged.
// A rate-limited provider response is returned as an error and leaves
// stored state untouched.
func (t *Tracker) Status(ctx context.Context, id string) (*models.ImageJob, error) {
	job := t.store.GetImageJob(id)
	if job == nil {
		return nil, apperr.NewNotFound("image job not found or expired")
	}

	if job.Terminal() {
		return job, nil
	}

	switch job.Status {
	case models.JobStatusCreated:
		claimed, ok := t.store.BeginImageJobInit(id)
		if !ok {
			// Another poller claimed the transition, or the reaper
			// evicted the job between the two lookups.
			current := t.store.GetImageJob(id)
			if current == nil {
				return nil, apperr.NewNotFound("image job not found or expired")
			}
			return current, nil
		}
		return ensureFound(t.initialize(ctx, claimed))
	case models.JobStatusInitializing:
		// Initialization is in flight on another request.
		return job, nil
	}

	return ensureFound(t.poll(ctx, job))
}

// ensureFound converts a job that vanished mid-update (reaper eviction)
// into NotFound, so Status never hands back a nil job without an error.
func ensureFound(job *models.ImageJob, err error) (*models.ImageJob, error) {
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperr.NewNotFound("image job not found or expired")
	}
	return job, nil
}

// initialize enhances the prompt and submits it to the image provider.
// This runs at most once per job; any failure is terminal.
func (t *Tracker) initialize(ctx context.Context, job *models.ImageJob) (*models.ImageJob, error) {
	enhanced := job.Description
	if t.completer.Configured() {
		text, err := t.completer.Complete(ctx, &llm.ChatRequest{
			Messages: []llm.ChatMessage{
				{Role: "system", Content: enhancementPrompt},
				{Role: "user", Content: job.Description},
			},
			Temperature: 0.7,
			MaxTokens:   300,
		})
		if err != nil {
			return t.fail(job.ID, "prompt enhancement failed: "+err.Error()), nil
		}
		enhanced = strings.TrimSpace(text)
	}

	resp, err := t.images.Generate(ctx, enhanced)
	if err != nil {
		return t.fail(job.ID, "image submission failed: "+err.Error()), nil
	}
	if resp.ID == "" {
		return t.fail(job.ID, "image provider returned no job handle"), nil
	}

	status := strings.ToLower(resp.Status)
	if status == "" {
		status = models.JobStatusPending
	}

	updated := t.store.UpdateImageJob(job.ID, func(j *models.ImageJob) {
		j.EnhancedPrompt = enhanced
		j.ProviderJobID = resp.ID
		j.Status = status
	})
	t.metrics.ImageJobTransitionsTotal.WithLabelValues(status).Inc()
	t.logger.Info("image job submitted", "task_id", job.ID, "provider_id", resp.ID, "status", status)

	// The provider may report immediate completion; resolve the asset
	// right away so a terminal job carries its URL.
	if strings.EqualFold(resp.Status, imagegen.StatusCompleted) {
		return t.poll(ctx, updated)
	}
	return updated, nil
}

// poll queries the provider's status endpoint and applies the outcome.
func (t *Tracker) poll(ctx context.Context, job *models.ImageJob) (*models.ImageJob, error) {
	resp, err := t.images.GetStatus(ctx, job.ProviderJobID)
	if err != nil {
		var rateLimited *apperr.RateLimitedError
		if errors.As(err, &rateLimited) {
			// Transient: stored state stays whatever it was.
			return nil, err
		}
		return nil, apperr.NewUpstream("image provider", "", err)
	}

	switch {
	case strings.EqualFold(resp.Status, imagegen.StatusCompleted):
		if len(resp.Output) == 0 {
			return t.fail(job.ID, "generation completed but returned no images"), nil
		}
		updated := t.store.UpdateImageJob(job.ID, func(j *models.ImageJob) {
			j.Status = models.JobStatusCompleted
			j.ImageURL = resp.Output[0]
		})
		t.metrics.ImageJobTransitionsTotal.WithLabelValues(models.JobStatusCompleted).Inc()
		t.logger.Info("image job completed", "task_id", job.ID)
		return updated, nil

	case strings.EqualFold(resp.Status, imagegen.StatusFailed):
		return t.fail(job.ID, resp.ErrorMessage()), nil

	default:
		// Still in flight: mirror the provider's raw status.
		status := strings.ToLower(resp.Status)
		if status == "" {
			status = models.JobStatusPending
		}
		updated := t.store.UpdateImageJob(job.ID, func(j *models.ImageJob) {
			j.Status = status
		})
		return updated, nil
	}
}

func (t *Tracker) fail(jobID, message string) *models.ImageJob {
	updated := t.store.UpdateImageJob(jobID, func(j *models.ImageJob) {
		j.Status = models.JobStatusFailed
		j.Error = message
	})
	t.metrics.ImageJobTransitionsTotal.WithLabelValues(models.JobStatusFailed).Inc()
	t.logger.Warn("image job failed", "task_id", jobID, "error", message)
	return updated
}
