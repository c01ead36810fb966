package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCoordinator   = "http://localhost:8080"
	DefaultMetricsListen = ":9100"
	DefaultProgressEvery = 10_000
	DefaultClaimTimeout  = 2 * time.Minute
)

// Config holds the worker configuration parsed from the `worker:` section of
// config.yaml. The `coordinator:` key in the same file is ignored.
type Config struct {
	Worker WorkerConfig `yaml:"worker"`
}

// WorkerConfig holds all worker-side settings.
type WorkerConfig struct {
	// Coordinator is the base URL of the picarlo-coordinator HTTP API.
	Coordinator string `yaml:"coordinator" env:"PICARLO_COORDINATOR"`

	// Index is this worker's index within the run, in [0, workers).
	// The process launcher supplies it, typically via PICARLO_WORKER_INDEX
	// or the -index flag.
	Index int `yaml:"index" env:"PICARLO_WORKER_INDEX"`

	// MetricsListen is the address the progress metrics endpoint binds to
	// (default ":9100").
	MetricsListen string `yaml:"metrics_listen" env:"PICARLO_METRICS_LISTEN"`

	// MetricsAdvertise is the host:port the coordinator should scrape.
	// Defaults to MetricsListen; set it when the bind address is not
	// reachable from the coordinator (e.g. binding ":9100" behind NAT).
	MetricsAdvertise string `yaml:"metrics_advertise" env:"PICARLO_METRICS_ADVERTISE"`

	// ProgressEvery is how many samples pass between progress counter
	// updates (default 10000).
	ProgressEvery int64 `yaml:"progress_every"`

	// ClaimTimeout bounds how long the worker keeps retrying to claim a
	// share before giving up (default 2m).
	ClaimTimeout time.Duration `yaml:"claim_timeout"`

	// Auth configures how the worker authenticates to the coordinator.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies the worker's authentication towards the coordinator.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" env:"PICARLO_AUTH_MODE"`

	// Header is the HTTP header name to send the key in.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// ScrapeAddr returns the address the coordinator should scrape for progress.
func (w WorkerConfig) ScrapeAddr() string {
	if w.MetricsAdvertise != "" {
		return w.MetricsAdvertise
	}
	return w.MetricsListen
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults; PICARLO_* environment variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("worker config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("worker config: parse yaml: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("worker config: parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Worker: WorkerConfig{
			Coordinator:   DefaultCoordinator,
			MetricsListen: DefaultMetricsListen,
			ProgressEvery: DefaultProgressEvery,
			ClaimTimeout:  DefaultClaimTimeout,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	w := cfg.Worker
	if w.Coordinator == "" {
		return fmt.Errorf("worker.coordinator must not be empty")
	}
	if w.Index < 0 {
		return fmt.Errorf("worker.index must not be negative")
	}
	if w.ProgressEvery <= 0 {
		return fmt.Errorf("worker.progress_every must be positive")
	}
	if w.ClaimTimeout <= 0 {
		return fmt.Errorf("worker.claim_timeout must be positive")
	}
	switch w.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("worker.auth.mode %q unknown: want apikey|none", w.Auth.Mode)
	}
	return nil
}
