package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oxylo/promopilot/internal/config"
	"github.com/oxylo/promopilot/internal/copygen"
	"github.com/oxylo/promopilot/internal/dispatch"
	"github.com/oxylo/promopilot/internal/imagejob"
	"github.com/oxylo/promopilot/internal/importer"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/store"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	store      *store.Store
	importer   *importer.Importer
	dispatcher *dispatch.Dispatcher
	generator  *copygen.Generator
	tracker    *imagejob.Tracker
	metrics    *metrics.Metrics

	config *config.Config
	logger *slog.Logger
}

// NewServer creates a new API server wired to the given services.
func NewServer(
	cfg *config.Config,
	s *store.Store,
	im *importer.Importer,
	d *dispatch.Dispatcher,
	g *copygen.Generator,
	t *imagejob.Tracker,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	srv := &Server{
		router:     chi.NewRouter(),
		store:      s,
		importer:   im,
		dispatcher: d,
		generator:  g,
		tracker:    t,
		metrics:    m,
		config:     cfg,
		logger:     logger.With("component", "api"),
	}

	srv.setupRoutes()
	return srv
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/upload-contacts", s.handleUploadContacts)

		r.Post("/campaigns", s.handleCreateCampaign)
		r.Get("/campaigns", s.handleListCampaigns)
		r.Post("/campaigns/{id}/send", s.handleSendCampaign)
		r.Get("/campaigns/{id}/results", s.handleCampaignResults)

		r.Post("/ai-message", s.handleAiMessage)

		r.Post("/generate-image/start", s.handleImageStart)
		r.Get("/generate-image/status/{taskId}", s.handleImageStatus)
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // dispatch runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.Server.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
