package imagejob

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oxylo/promopilot/internal/store"
)

// ReaperConfig contains eviction settings
type ReaperConfig struct {
	// TTL since a job's last poll; jobs older than this are evicted.
	TTL      time.Duration
	Interval time.Duration
}

// Reaper evicts image jobs that have not been polled for the configured
// TTL, so abandoned jobs do not accumulate for the life of the process.
type Reaper struct {
	store  *store.Store
	cfg    ReaperConfig
	logger *slog.Logger
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewReaper creates a reaper.
func NewReaper(s *store.Store, cfg ReaperConfig, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:  s,
		cfg:    cfg,
		logger: logger.With("component", "reaper"),
		done:   make(chan struct{}),
	}
}

// Start starts the eviction goroutine. Disabled when TTL <= 0.
func (r *Reaper) Start(ctx context.Context) {
	if r.cfg.TTL <= 0 || r.cfg.Interval <= 0 {
		return
	}

	r.wg.Add(1)
	go r.run(ctx)
	r.logger.Info("reaper started", "ttl", r.cfg.TTL, "interval", r.cfg.Interval)
}

// Stop stops the reaper and waits for the goroutine to finish.
func (r *Reaper) Stop() {
	close(r.done)
	r.wg.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *Reaper) reap() {
	removed := r.store.ReapImageJobs(time.Now().Add(-r.cfg.TTL))
	if removed > 0 {
		r.logger.Info("evicted stale image jobs", "removed", removed)
	}
}
