package imagejob

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oxylo/promopilot/internal/store"
)

func TestReaperEvictsStaleJobs(t *testing.T) {
	s := store.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	job := s.CreateImageJob("a red bicycle")

	r := NewReaper(s, ReaperConfig{TTL: 10 * time.Millisecond, Interval: 5 * time.Millisecond}, logger)
	r.Start(context.Background())
	defer r.Stop()

	// Checking the job would refresh its poll time, so just wait out
	// several reap cycles before looking.
	time.Sleep(100 * time.Millisecond)

	if s.GetImageJob(job.ID) != nil {
		t.Fatal("stale job was never evicted")
	}
}

func TestReaperDisabledWithoutTTL(t *testing.T) {
	s := store.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	job := s.CreateImageJob("a red bicycle")

	r := NewReaper(s, ReaperConfig{TTL: 0, Interval: time.Millisecond}, logger)
	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	if s.GetImageJob(job.ID) == nil {
		t.Error("job was evicted although the reaper is disabled")
	}
}
