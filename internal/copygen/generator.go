// Package copygen drafts channel-specific marketing copy through the
// completion provider and scores it against compliance rules.
package copygen

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/config"
	"github.com/oxylo/promopilot/internal/llm"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/models"
	"github.com/oxylo/promopilot/internal/store"
)

// Channel length caps. SMS is a hard single-segment limit; WhatsApp gets
// headroom beyond its 200-300 character target.
const (
	SMSMaxLength      = 160
	WhatsAppMaxLength = 1000
)

// Compliance probes run against lowercased text, which keeps the
// matching case-insensitive.
var (
	optOutPattern       = regexp.MustCompile(`\b(stop|opt[ -]?out|unsubscribe)\b`)
	callToActionPattern = regexp.MustCompile(`\b(shop|buy|order|visit|call|book|get|claim|try|grab|reserve)\b`)
)

// Completer produces one chat completion. *llm.Client implements it.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req *llm.ChatRequest) (string, error)
}

// Generator builds prompts, calls the completion provider once and
// post-processes the result. No retry: a provider failure propagates.
type Generator struct {
	store     *store.Store
	completer Completer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	brand     config.BrandConfig
}

// New creates a Generator.
func New(s *store.Store, c Completer, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{
		store:     s,
		completer: c,
		metrics:   m,
		logger:    logger.With("component", "copygen"),
		brand:     cfg.Brand,
	}
}

// Generate drafts one message for the channel from the promotional idea,
// persists it and returns it with its compliance report.
func (g *Generator) Generate(ctx context.Context, channel, idea string) (*models.AiMessage, *models.ComplianceReport, error) {
	if channel != models.ChannelWhatsApp && channel != models.ChannelSMS {
		return nil, nil, apperr.NewValidation("channel must be %q or %q", models.ChannelWhatsApp, models.ChannelSMS)
	}
	if strings.TrimSpace(idea) == "" {
		return nil, nil, apperr.NewValidation("idea is required")
	}
	if !g.completer.Configured() {
		return nil, nil, apperr.NewServiceUnavailable("completion provider")
	}

	req := &llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: g.systemPrompt(channel)},
			{Role: "user", Content: "Promotional idea: " + idea},
		},
		Temperature: 0.8,
		MaxTokens:   500,
	}

	text, err := g.completer.Complete(ctx, req)
	if err != nil {
		return nil, nil, apperr.NewUpstream("completion provider", "", err)
	}

	text = strings.TrimSpace(text)
	text = truncateAtWord(text, maxLength(channel))

	report := g.Check(channel, text)

	msg := g.store.SaveMessage(models.AiMessage{
		Channel:        channel,
		Idea:           idea,
		Text:           text,
		CharacterCount: utf8.RuneCountInString(text),
		WordCount:      len(strings.Fields(text)),
		IsCompliant:    report.IsCompliant,
	})

	g.metrics.AiMessagesTotal.WithLabelValues(channel, fmt.Sprintf("%t", report.IsCompliant)).Inc()
	g.logger.Info("message generated",
		"id", msg.ID,
		"channel", channel,
		"characters", msg.CharacterCount,
		"compliant", msg.IsCompliant,
	)

	return &msg, report, nil
}

// systemPrompt embeds the brand identity, the problem-agitate-solution
// narrative and the channel's structural rules.
func (g *Generator) systemPrompt(channel string) string {
	var b strings.Builder

	b.WriteString("You are a marketing copywriter for ")
	b.WriteString(g.brand.Name)
	if g.brand.Location != "" {
		b.WriteString(", located in ")
		b.WriteString(g.brand.Location)
	}
	b.WriteString(".\n")
	b.WriteString("Write using the problem-agitate-solution structure: name the customer's problem, make it vivid, then present the offer as the solution.\n")

	switch channel {
	case models.ChannelSMS:
		b.WriteString("Rules for SMS:\n")
		b.WriteString("- One single line, no line breaks.\n")
		b.WriteString(fmt.Sprintf("- At most %d characters.\n", SMSMaxLength))
		b.WriteString("- End with the opt-out instruction \"Reply STOP to opt out\".\n")
	case models.ChannelWhatsApp:
		b.WriteString("Rules for WhatsApp:\n")
		b.WriteString("- Two or three short paragraphs.\n")
		b.WriteString("- Target 200-300 characters.\n")
		b.WriteString("- Mention the business name")
		if g.brand.Location != "" {
			b.WriteString(" and its location")
		}
		b.WriteString(".\n")
		b.WriteString("- Include an opt-out instruction.\n")
	}

	b.WriteString("Include a clear call to action. Return only the message text.")
	return b.String()
}

// Check runs the five independent compliance probes; the overall flag is
// their conjunction.
func (g *Generator) Check(channel, text string) *models.ComplianceReport {
	lower := strings.ToLower(text)

	report := &models.ComplianceReport{
		HasOptOut:       optOutPattern.MatchString(lower),
		HasBusinessName: strings.Contains(lower, strings.ToLower(g.brand.Name)),
		HasCallToAction: callToActionPattern.MatchString(lower),
		HasLocation:     g.hasLocation(lower),
		WithinLength:    utf8.RuneCountInString(text) <= maxLength(channel),
	}
	report.IsCompliant = report.HasOptOut &&
		report.HasBusinessName &&
		report.HasCallToAction &&
		report.HasLocation &&
		report.WithinLength

	return report
}

func (g *Generator) hasLocation(lower string) bool {
	// With no configured location there is nothing to require.
	if g.brand.Location == "" {
		return true
	}
	return strings.Contains(lower, strings.ToLower(g.brand.Location))
}

func maxLength(channel string) int {
	if channel == models.ChannelSMS {
		return SMSMaxLength
	}
	return WhatsAppMaxLength
}

// truncateAtWord clamps text to max characters, cutting at the last
// whitespace boundary and appending an ellipsis marker. Lengths are
// counted in runes so multibyte text is never split mid-character, and
// truncation never splits inside a word.
func truncateAtWord(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	cut := string([]rune(text)[:max-3])
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n") + "..."
}
