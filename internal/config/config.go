package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Brand     BrandConfig     `yaml:"brand"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	ImageJobs ImageJobsConfig `yaml:"image_jobs"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// BrandConfig is the brand identity embedded into AI prompts and used as
// the sender of campaign emails.
type BrandConfig struct {
	Name      string `yaml:"name"`
	Location  string `yaml:"location"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type DispatchConfig struct {
	SendDelay time.Duration `yaml:"send_delay"`
}

type ImageJobsConfig struct {
	// TTL evicts jobs not polled for this long; disabled when <= 0.
	TTL          time.Duration `yaml:"ttl"`
	ReapInterval time.Duration `yaml:"reap_interval"`
}

type ProvidersConfig struct {
	Email      ProviderConfig `yaml:"email"`
	Completion ProviderConfig `yaml:"completion"`
	Image      ProviderConfig `yaml:"image"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the config file, applies defaults and environment credential
// overrides, then validates. An empty path yields a default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	setDefaults(cfg)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Brand.Name == "" {
		cfg.Brand.Name = "PromoPilot"
	}
	if cfg.Brand.FromEmail == "" {
		cfg.Brand.FromEmail = "campaigns@promopilot.dev"
	}
	if cfg.Dispatch.SendDelay == 0 {
		cfg.Dispatch.SendDelay = 100 * time.Millisecond
	}
	if cfg.ImageJobs.TTL == 0 {
		cfg.ImageJobs.TTL = 30 * time.Minute
	}
	if cfg.ImageJobs.ReapInterval == 0 {
		cfg.ImageJobs.ReapInterval = 5 * time.Minute
	}
	if cfg.Providers.Email.BaseURL == "" {
		cfg.Providers.Email.BaseURL = "https://api.resend.com"
	}
	if cfg.Providers.Completion.BaseURL == "" {
		cfg.Providers.Completion.BaseURL = "https://api.openai.com"
	}
	if cfg.Providers.Image.BaseURL == "" {
		cfg.Providers.Image.BaseURL = "https://api.imagepipe.dev"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnv lets environment credentials override the file. A missing
// credential is not an error: the matching feature degrades to 503.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Providers.Email.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.Completion.APIKey = v
	}
	if v := os.Getenv("IMAGEGEN_API_KEY"); v != "" {
		cfg.Providers.Image.APIKey = v
	}
}

func validate(cfg *Config) error {
	if cfg.Dispatch.SendDelay < 0 {
		return fmt.Errorf("dispatch.send_delay must not be negative")
	}
	if cfg.Brand.Name == "" {
		return fmt.Errorf("brand.name is required")
	}
	return nil
}
