// Package store is the process-lifetime source of truth: contacts,
// campaigns, per-recipient send results, generated messages and image
// jobs live in keyed in-memory collections and are discarded on restart.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oxylo/promopilot/internal/models"
)

// Store holds all entities behind one RWMutex. HTTP requests are served
// concurrently, so every accessor copies entities in and out under the
// lock; callers never share pointers with the store.
type Store struct {
	mu sync.RWMutex

	contacts     map[string]*models.Contact
	contactOrder []string
	campaigns    map[string]*models.Campaign
	results      map[string][]models.EmailResult // keyed by campaign ID
	messages     map[string]*models.AiMessage
	imageJobs    map[string]*models.ImageJob
}

// New creates an empty store.
func New() *Store {
	return &Store{
		contacts:  make(map[string]*models.Contact),
		campaigns: make(map[string]*models.Campaign),
		results:   make(map[string][]models.EmailResult),
		messages:  make(map[string]*models.AiMessage),
		imageJobs: make(map[string]*models.ImageJob),
	}
}

// InsertContacts assigns IDs and stores the given contacts, preserving
// their order. Validity flags are computed by the importer and never
// recomputed here.
func (s *Store) InsertContacts(contacts []models.Contact) []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	out := make([]models.Contact, len(contacts))
	for i, c := range contacts {
		c.ID = uuid.New().String()
		c.CreatedAt = now
		s.contacts[c.ID] = &c
		s.contactOrder = append(s.contactOrder, c.ID)
		out[i] = c
	}
	return out
}

// GetContact returns a contact by ID, or nil if unknown.
func (s *Store) GetContact(id string) *models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

// CreateCampaign stores a new campaign and attaches the given contacts to
// it. Unknown contact IDs are skipped and duplicates count once; a
// contact already owned by another campaign moves here, and the previous
// campaign's recipient count is adjusted to match.
func (s *Store) CreateCampaign(subject, body string, contactIDs []string) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Campaign{
		ID:        uuid.New().String(),
		Subject:   subject,
		Body:      body,
		Status:    models.CampaignStatusPending,
		CreatedAt: time.Now(),
	}

	for _, id := range contactIDs {
		contact, ok := s.contacts[id]
		if !ok || contact.CampaignID == c.ID {
			continue
		}
		if prev, ok := s.campaigns[contact.CampaignID]; ok {
			prev.Recipients--
		}
		contact.CampaignID = c.ID
		c.Recipients++
	}

	s.campaigns[c.ID] = c
	copied := *c
	return &copied
}

// GetCampaign returns a campaign by ID, or nil if unknown.
func (s *Store) GetCampaign(id string) *models.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

// ListCampaigns returns all campaigns, newest first.
func (s *Store) ListCampaigns() []models.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SetCampaignStatus updates a campaign's status.
func (s *Store) SetCampaignStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.campaigns[id]; ok {
		c.Status = status
	}
}

// FinishCampaign marks a campaign completed and overwrites its counters
// with the final tally.
func (s *Store) FinishCampaign(id string, sent, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return
	}
	c.Status = models.CampaignStatusCompleted
	c.SentCount = sent
	c.FailedCount = failed
}

// ContactsByCampaign returns the contacts attached to a campaign in
// insertion order.
func (s *Store) ContactsByCampaign(campaignID string) []models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Contact
	for _, id := range s.contactOrder {
		if c := s.contacts[id]; c.CampaignID == campaignID {
			out = append(out, *c)
		}
	}
	return out
}

// AppendEmailResult records one per-recipient send outcome. Results are
// append-only.
func (s *Store) AppendEmailResult(r models.EmailResult) models.EmailResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New().String()
	r.Timestamp = time.Now()
	s.results[r.CampaignID] = append(s.results[r.CampaignID], r)
	return r
}

// ResultsByCampaign returns the send results recorded for a campaign.
func (s *Store) ResultsByCampaign(campaignID string) []models.EmailResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.results[campaignID]
	out := make([]models.EmailResult, len(src))
	copy(out, src)
	return out
}

// SaveMessage stores a generated message, assigning its ID.
func (s *Store) SaveMessage(m models.AiMessage) models.AiMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.New().String()
	m.CreatedAt = time.Now()
	s.messages[m.ID] = &m
	return m
}

// GetMessage returns a generated message by ID, or nil if unknown.
func (s *Store) GetMessage(id string) *models.AiMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil
	}
	copied := *m
	return &copied
}

// CreateImageJob stores a new job in the created state. No provider is
// contacted here; the expensive work happens on the first poll.
func (s *Store) CreateImageJob(description string) *models.ImageJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	j := &models.ImageJob{
		ID:           uuid.New().String(),
		Description:  description,
		Status:       models.JobStatusCreated,
		CreatedAt:    now,
		LastPolledAt: now,
	}
	s.imageJobs[j.ID] = j
	copied := *j
	return &copied
}

// GetImageJob returns a job by ID and refreshes its last-polled time, or
// nil if unknown or already evicted.
func (s *Store) GetImageJob(id string) *models.ImageJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.imageJobs[id]
	if !ok {
		return nil
	}
	j.LastPolledAt = time.Now()
	copied := *j
	return &copied
}

// BeginImageJobInit performs the created->initializing transition as a
// compare-and-set: it succeeds for exactly one caller, so concurrent
// first polls cannot double-submit to the provider.
func (s *Store) BeginImageJobInit(id string) (*models.ImageJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.imageJobs[id]
	if !ok || j.Status != models.JobStatusCreated {
		return nil, false
	}
	j.Status = models.JobStatusInitializing
	copied := *j
	return &copied, true
}

// UpdateImageJob applies fn to a stored job. Terminal jobs are never
// mutated; the update is silently dropped once a job has completed or
// failed.
func (s *Store) UpdateImageJob(id string, fn func(*models.ImageJob)) *models.ImageJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.imageJobs[id]
	if !ok {
		return nil
	}
	if !j.Terminal() {
		fn(j)
	}
	copied := *j
	return &copied
}

// ReapImageJobs evicts jobs whose last poll is older than the cutoff and
// returns how many were removed.
func (s *Store) ReapImageJobs(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, j := range s.imageJobs {
		if j.LastPolledAt.Before(cutoff) {
			delete(s.imageJobs, id)
			removed++
		}
	}
	return removed
}
