package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/picarlo/picarlo/pkg/montecarlo"
)

// Default values for the coordinator configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultRunTTL            = 1 * time.Hour
	DefaultBroadcastInterval = 2 * time.Second
	DefaultPollInterval      = 2 * time.Second
)

// Config holds the coordinator configuration parsed from the `coordinator:`
// section of config.yaml. The `worker:` key in the same file is ignored.
type Config struct {
	Coordinator CoordinatorConfig `yaml:"coordinator"`
}

// CoordinatorConfig holds all coordinator-side settings.
type CoordinatorConfig struct {
	// HTTPPort is the port the REST API, report intake, and WebSocket hub
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port" env:"PICARLO_HTTP_PORT"`

	// Run is the estimation run created at startup. When Run.Workers is
	// zero no run is auto-created and runs arrive via POST /api/v1/runs.
	Run RunConfig `yaml:"run"`

	// RunTTL is how long a finished run remains queryable before the run
	// store evicts it (default 1h).
	RunTTL time.Duration `yaml:"run_ttl" env:"PICARLO_RUN_TTL"`

	// BroadcastInterval is how often the WebSocket hub pushes run status
	// to connected clients (default 2s).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// PollInterval is how often worker progress metrics are scraped
	// (default 2s).
	PollInterval time.Duration `yaml:"poll_interval"`

	// Auth configures API key authentication for worker and client calls.
	Auth AuthConfig `yaml:"auth"`
}

// RunConfig is the run auto-created when the coordinator starts.
type RunConfig struct {
	// Samples is the total sample count. Scientific notation is accepted
	// ("1e6"); quote the value in yaml.
	Samples string `yaml:"num_samples" env:"PICARLO_NUM_SAMPLES"`

	// Seed is the base seed; worker i samples with seed+i.
	Seed int64 `yaml:"seed" env:"PICARLO_SEED"`

	// Workers is the number of worker processes the run expects. Zero
	// disables the startup run.
	Workers int `yaml:"workers" env:"PICARLO_WORKERS"`
}

// Params parses and validates the run's sample count and seed.
func (r RunConfig) Params() (montecarlo.Params, error) {
	samples, err := montecarlo.ParseSampleCount(r.Samples)
	if err != nil {
		return montecarlo.Params{}, err
	}
	return montecarlo.Params{Samples: samples, Seed: r.Seed}, nil
}

// AuthConfig controls worker and client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" env:"PICARLO_AUTH_MODE"`

	// KeyEnv is the name of the environment variable that holds the
	// expected API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
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

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before unmarshalling; PICARLO_* environment variables
// override file values; the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coordinator config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("coordinator config: parse yaml: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("coordinator config: parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("coordinator config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			HTTPPort: DefaultHTTPPort,
			Run: RunConfig{
				Samples: "1e5",
				Seed:    montecarlo.DefaultSeed,
			},
			RunTTL:            DefaultRunTTL,
			BroadcastInterval: DefaultBroadcastInterval,
			PollInterval:      DefaultPollInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	c := cfg.Coordinator
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("coordinator.http_port %d is out of range [1, 65535]", c.HTTPPort)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("coordinator.run.workers must not be negative")
	}
	if c.Run.Workers > 0 {
		if _, err := c.Run.Params(); err != nil {
			return fmt.Errorf("coordinator.run: %w", err)
		}
	}
	if c.RunTTL < 0 {
		return fmt.Errorf("coordinator.run_ttl must not be negative")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("coordinator.broadcast_interval must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("coordinator.poll_interval must be positive")
	}
	switch c.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("coordinator.auth.mode %q unknown: want apikey|none", c.Auth.Mode)
	}
	return nil
}
