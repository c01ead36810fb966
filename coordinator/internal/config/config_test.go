package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes yaml content to a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "coordinator: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c := cfg.Coordinator
	if c.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort = %d, want %d", c.HTTPPort, DefaultHTTPPort)
	}
	if c.RunTTL != DefaultRunTTL {
		t.Errorf("RunTTL = %v, want %v", c.RunTTL, DefaultRunTTL)
	}
	if c.BroadcastInterval != DefaultBroadcastInterval {
		t.Errorf("BroadcastInterval = %v, want %v", c.BroadcastInterval, DefaultBroadcastInterval)
	}
	if c.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", c.PollInterval, DefaultPollInterval)
	}
	if c.Run.Samples != "1e5" {
		t.Errorf("Run.Samples = %q, want %q", c.Run.Samples, "1e5")
	}
	if c.Run.Workers != 0 {
		t.Errorf("Run.Workers = %d, want 0", c.Run.Workers)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
coordinator:
  http_port: 9090
  run:
    num_samples: "1e6"
    seed: 7
    workers: 4
  run_ttl: 30m
  broadcast_interval: 1s
  poll_interval: 500ms
  auth:
    mode: apikey
    key_env: PICARLO_TEST_KEY
    header: x-picarlo-key
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c := cfg.Coordinator
	if c.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", c.HTTPPort)
	}
	if c.RunTTL != 30*time.Minute {
		t.Errorf("RunTTL = %v, want 30m", c.RunTTL)
	}
	if c.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", c.PollInterval)
	}

	p, err := c.Run.Params()
	if err != nil {
		t.Fatalf("Run.Params: %v", err)
	}
	if p.Samples != 1_000_000 || p.Seed != 7 {
		t.Errorf("Run.Params = %+v, want samples 1000000 seed 7", p)
	}
	if c.Run.Workers != 4 {
		t.Errorf("Run.Workers = %d, want 4", c.Run.Workers)
	}

	if c.Auth.Mode != "apikey" {
		t.Errorf("Auth.Mode = %q, want apikey", c.Auth.Mode)
	}
	if got := c.Auth.EffectiveHeader(); got != "x-picarlo-key" {
		t.Errorf("EffectiveHeader = %q, want x-picarlo-key", got)
	}
	t.Setenv("PICARLO_TEST_KEY", "s3cret")
	if got := c.Auth.Key(); got != "s3cret" {
		t.Errorf("Key = %q, want s3cret", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PICARLO_HTTP_PORT", "7070")
	t.Setenv("PICARLO_NUM_SAMPLES", "1e4")
	t.Setenv("PICARLO_WORKERS", "2")

	cfg, err := Load(writeConfig(t, `
coordinator:
  http_port: 9090
  run:
    num_samples: "1e6"
    workers: 8
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Coordinator.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want env override 7070", cfg.Coordinator.HTTPPort)
	}
	if cfg.Coordinator.Run.Samples != "1e4" {
		t.Errorf("Run.Samples = %q, want env override %q", cfg.Coordinator.Run.Samples, "1e4")
	}
	if cfg.Coordinator.Run.Workers != 2 {
		t.Errorf("Run.Workers = %d, want env override 2", cfg.Coordinator.Run.Workers)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad port", "coordinator:\n  http_port: 70000\n", "http_port"},
		{"negative workers", "coordinator:\n  run:\n    workers: -1\n", "workers"},
		{"bad samples", "coordinator:\n  run:\n    num_samples: \"lots\"\n    workers: 2\n", "num_samples"},
		{"zero poll interval", "coordinator:\n  poll_interval: 0s\n", "poll_interval"},
		{"unknown auth mode", "coordinator:\n  auth:\n    mode: oauth\n", "auth.mode"},
		{"not yaml", "coordinator: [\n", "yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
