package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/config"
	"github.com/oxylo/promopilot/internal/mailer"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/models"
	"github.com/oxylo/promopilot/internal/store"
)

// mockSender implements Sender for testing
type mockSender struct {
	configured bool
	sent       []*mailer.SendRequest
	failOn     map[int]error // by call index
	calls      int
}

func (m *mockSender) Configured() bool { return m.configured }

func (m *mockSender) Send(ctx context.Context, req *mailer.SendRequest) (*mailer.SendResponse, error) {
	idx := m.calls
	m.calls++
	if err, ok := m.failOn[idx]; ok {
		return nil, err
	}
	m.sent = append(m.sent, req)
	return &mailer.SendResponse{ID: "msg"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Brand: config.BrandConfig{
			Name:      "Acme Coffee",
			FromEmail: "hello@acme.test",
			FromName:  "Acme",
		},
		Dispatch: config.DispatchConfig{SendDelay: time.Millisecond},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(sender Sender) (*Dispatcher, *store.Store) {
	s := store.New()
	d := New(s, sender, metrics.New(), testConfig(), testLogger())
	return d, s
}

func seedCampaign(s *store.Store, subject, body string, contacts []models.Contact) *models.Campaign {
	inserted := s.InsertContacts(contacts)
	ids := make([]string, len(inserted))
	for i, c := range inserted {
		ids[i] = c.ID
	}
	return s.CreateCampaign(subject, body, ids)
}

func TestSendAllSucceed(t *testing.T) {
	sender := &mockSender{configured: true}
	d, s := setup(sender)

	campaign := seedCampaign(s, "Hi {name}", "Hello {name}, big sale!", []models.Contact{
		{Name: "Alice", Email: "alice@example.com", IsValid: true},
		{Name: "Bob", Email: "bob@example.com", IsValid: true},
		{Name: "Carol", Email: "bad", IsValid: false},
	})

	summary, err := d.Send(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Only valid contacts are dispatched.
	if summary.Total != 2 || summary.SentCount != 2 || summary.FailedCount != 0 {
		t.Errorf("summary = %+v, want {2 0 2}", summary)
	}

	results := s.ResultsByCampaign(campaign.ID)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	got := s.GetCampaign(campaign.ID)
	if got.Status != models.CampaignStatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.SentCount != 2 || got.FailedCount != 0 {
		t.Errorf("counters = %d/%d, want 2/0", got.SentCount, got.FailedCount)
	}
}

func TestSendSubstitutesPlaceholder(t *testing.T) {
	sender := &mockSender{configured: true}
	d, s := setup(sender)

	campaign := seedCampaign(s, "Hi {name}", "Dear {name}, see our offer.", []models.Contact{
		{Name: "Alice", Email: "alice@example.com", IsValid: true},
	})

	if _, err := d.Send(context.Background(), campaign.ID); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	req := sender.sent[0]
	if req.Subject != "Hi Alice" {
		t.Errorf("Subject = %q, want %q", req.Subject, "Hi Alice")
	}
	if req.Text != "Dear Alice, see our offer." {
		t.Errorf("Text = %q", req.Text)
	}
}

func TestSendRecordsFailureAndContinues(t *testing.T) {
	sender := &mockSender{
		configured: true,
		failOn:     map[int]error{1: errors.New("mailbox unavailable")},
	}
	d, s := setup(sender)

	campaign := seedCampaign(s, "s", "b", []models.Contact{
		{Name: "A", Email: "a@example.com", IsValid: true},
		{Name: "B", Email: "b@example.com", IsValid: true},
		{Name: "C", Email: "c@example.com", IsValid: true},
	})

	summary, err := d.Send(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if summary.SentCount != 2 || summary.FailedCount != 1 || summary.Total != 3 {
		t.Errorf("summary = %+v, want {2 1 3}", summary)
	}

	var failed []models.EmailResult
	for _, r := range s.ResultsByCampaign(campaign.ID) {
		if r.Status == models.EmailStatusFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) != 1 {
		t.Fatalf("got %d failed results, want 1", len(failed))
	}
	// Provider error text is captured verbatim.
	if failed[0].Error != "mailbox unavailable" {
		t.Errorf("Error = %q, want %q", failed[0].Error, "mailbox unavailable")
	}
	if failed[0].Email != "b@example.com" {
		t.Errorf("failed recipient = %q, want b@example.com", failed[0].Email)
	}

	// Dispatch completion is independent of individual outcomes.
	if got := s.GetCampaign(campaign.ID); got.Status != models.CampaignStatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
}

func TestSendUnknownCampaign(t *testing.T) {
	d, _ := setup(&mockSender{configured: true})

	_, err := d.Send(context.Background(), "bogus")
	var notFound *apperr.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSendProviderNotConfigured(t *testing.T) {
	sender := &mockSender{configured: false}
	d, s := setup(sender)

	campaign := seedCampaign(s, "s", "b", []models.Contact{
		{Name: "A", Email: "a@example.com", IsValid: true},
	})

	_, err := d.Send(context.Background(), campaign.ID)
	var unavailable *apperr.ServiceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ServiceUnavailableError, got %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("sender was called %d times, want 0", sender.calls)
	}
}
