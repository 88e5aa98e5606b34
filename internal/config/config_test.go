package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Brand.Name != "PromoPilot" {
		t.Errorf("Brand.Name = %q", cfg.Brand.Name)
	}
	if cfg.Dispatch.SendDelay != 100*time.Millisecond {
		t.Errorf("SendDelay = %v, want 100ms", cfg.Dispatch.SendDelay)
	}
	if cfg.ImageJobs.TTL != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", cfg.ImageJobs.TTL)
	}
	if cfg.Providers.Email.BaseURL != "https://api.resend.com" {
		t.Errorf("email base URL = %q", cfg.Providers.Email.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestLoadFile(t *testing.T) {
	content := `
server:
  listen_addr: ":9090"
brand:
  name: "Bloom Bakery"
  location: "Kigali"
dispatch:
  send_delay: 250ms
image_jobs:
  ttl: 10m
logging:
  level: debug
  format: text
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Brand.Name != "Bloom Bakery" || cfg.Brand.Location != "Kigali" {
		t.Errorf("Brand = %+v", cfg.Brand)
	}
	if cfg.Dispatch.SendDelay != 250*time.Millisecond {
		t.Errorf("SendDelay = %v, want 250ms", cfg.Dispatch.SendDelay)
	}
	if cfg.ImageJobs.TTL != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", cfg.ImageJobs.TTL)
	}
	// File values do not disturb untouched defaults.
	if cfg.ImageJobs.ReapInterval != 5*time.Minute {
		t.Errorf("ReapInterval = %v, want 5m", cfg.ImageJobs.ReapInterval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("OPENAI_API_KEY", "sk_test")
	t.Setenv("IMAGEGEN_API_KEY", "img_test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Providers.Email.APIKey != "re_test" {
		t.Errorf("email key = %q", cfg.Providers.Email.APIKey)
	}
	if cfg.Providers.Completion.APIKey != "sk_test" {
		t.Errorf("completion key = %q", cfg.Providers.Completion.APIKey)
	}
	if cfg.Providers.Image.APIKey != "img_test" {
		t.Errorf("image key = %q", cfg.Providers.Image.APIKey)
	}
}

func TestValidateNegativeDelay(t *testing.T) {
	content := "dispatch:\n  send_delay: -5s\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative send_delay")
	}
}
