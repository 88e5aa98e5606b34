package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oxylo/promopilot/internal/api"
	"github.com/oxylo/promopilot/internal/config"
	"github.com/oxylo/promopilot/internal/copygen"
	"github.com/oxylo/promopilot/internal/dispatch"
	"github.com/oxylo/promopilot/internal/imagegen"
	"github.com/oxylo/promopilot/internal/imagejob"
	"github.com/oxylo/promopilot/internal/importer"
	"github.com/oxylo/promopilot/internal/llm"
	"github.com/oxylo/promopilot/internal/mailer"
	"github.com/oxylo/promopilot/internal/metrics"
	"github.com/oxylo/promopilot/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var configFile string

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Provider credentials may live in a local .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	st := store.New()
	m := metrics.New()

	mailClient := mailer.NewClient(cfg.Providers.Email.BaseURL, cfg.Providers.Email.APIKey)
	llmClient := llm.NewClient(cfg.Providers.Completion.BaseURL, cfg.Providers.Completion.APIKey)
	imageClient := imagegen.NewClient(cfg.Providers.Image.BaseURL, cfg.Providers.Image.APIKey)

	im := importer.New(st)
	dispatcher := dispatch.New(st, mailClient, m, cfg, logger)
	generator := copygen.New(st, llmClient, m, cfg, logger)
	tracker := imagejob.New(st, imageClient, llmClient, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper := imagejob.NewReaper(st, imagejob.ReaperConfig{
		TTL:      cfg.ImageJobs.TTL,
		Interval: cfg.ImageJobs.ReapInterval,
	}, logger)
	reaper.Start(ctx)
	defer reaper.Stop()

	srv := api.NewServer(cfg, st, im, dispatcher, generator, tracker, m, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
