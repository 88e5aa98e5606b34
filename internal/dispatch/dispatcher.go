// Package dispatch runs the per-recipient campaign send loop.
package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/config"
	"github.com/oxylo/promopilot/internal/mailer"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/models"
	"github.com/oxylo/promopilot/internal/store"
)

// placeholder is the literal token replaced with the recipient's name in
// subject and body.
const placeholder = "{name}"

// Sender sends one email per recipient. *mailer.Client implements it.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, req *mailer.SendRequest) (*mailer.SendResponse, error)
}

// Dispatcher iterates a campaign's valid recipients in insertion order,
// one send at a time. There is no retry and no cancellation once
// started; a failed recipient never aborts the batch.
type Dispatcher struct {
	store     *store.Store
	sender    Sender
	metrics   *metrics.Metrics
	logger    *slog.Logger
	from      string
	sendDelay time.Duration
}

// New creates a Dispatcher.
func New(s *store.Store, sender Sender, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Dispatcher {
	from := cfg.Brand.FromEmail
	if cfg.Brand.FromName != "" {
		from = cfg.Brand.FromName + " <" + cfg.Brand.FromEmail + ">"
	}

	return &Dispatcher{
		store:     s,
		sender:    sender,
		metrics:   m,
		logger:    logger.With("component", "dispatcher"),
		from:      from,
		sendDelay: cfg.Dispatch.SendDelay,
	}
}

// Send dispatches a campaign and returns the aggregate tally. The
// campaign always finishes in the completed state: completed means the
// dispatch loop ran to the end, not that every recipient succeeded.
func (d *Dispatcher) Send(ctx context.Context, campaignID string) (*models.DispatchSummary, error) {
	campaign := d.store.GetCampaign(campaignID)
	if campaign == nil {
		return nil, apperr.NewNotFound("campaign %s not found", campaignID)
	}

	// Credential is checked once, before the loop.
	if !d.sender.Configured() {
		return nil, apperr.NewServiceUnavailable("email provider")
	}

	recipients := validRecipients(d.store.ContactsByCampaign(campaignID))

	d.store.SetCampaignStatus(campaignID, models.CampaignStatusSending)
	d.logger.Info("dispatch started", "campaign_id", campaignID, "recipients", len(recipients))

	summary := &models.DispatchSummary{Total: len(recipients)}
	for i, contact := range recipients {
		result := models.EmailResult{
			CampaignID: campaignID,
			ContactID:  contact.ID,
			Email:      contact.Email,
		}

		req := &mailer.SendRequest{
			From:    d.from,
			To:      []string{contact.Email},
			Subject: strings.ReplaceAll(campaign.Subject, placeholder, contact.Name),
			Text:    strings.ReplaceAll(campaign.Body, placeholder, contact.Name),
		}

		if _, err := d.sender.Send(ctx, req); err != nil {
			// Provider error text is recorded verbatim; the loop
			// continues with the next recipient.
			result.Status = models.EmailStatusFailed
			result.Error = err.Error()
			summary.FailedCount++
			d.metrics.EmailsFailedTotal.Inc()
			d.logger.Warn("send failed", "campaign_id", campaignID, "email", contact.Email, "error", err)
		} else {
			result.Status = models.EmailStatusSent
			summary.SentCount++
			d.metrics.EmailsSentTotal.Inc()
		}

		d.store.AppendEmailResult(result)

		if i < len(recipients)-1 {
			time.Sleep(d.sendDelay)
		}
	}

	d.store.FinishCampaign(campaignID, summary.SentCount, summary.FailedCount)
	d.logger.Info("dispatch finished",
		"campaign_id", campaignID,
		"sent", summary.SentCount,
		"failed", summary.FailedCount,
	)

	return summary, nil
}

func validRecipients(contacts []models.Contact) []models.Contact {
	var out []models.Contact
	for _, c := range contacts {
		if c.IsValid {
			out = append(out, c)
		}
	}
	return out
}
