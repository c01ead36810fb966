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
	cfg, err := Load(writeConfig(t, "worker: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	w := cfg.Worker
	if w.Coordinator != DefaultCoordinator {
		t.Errorf("Coordinator = %q, want %q", w.Coordinator, DefaultCoordinator)
	}
	if w.MetricsListen != DefaultMetricsListen {
		t.Errorf("MetricsListen = %q, want %q", w.MetricsListen, DefaultMetricsListen)
	}
	if w.ProgressEvery != DefaultProgressEvery {
		t.Errorf("ProgressEvery = %d, want %d", w.ProgressEvery, DefaultProgressEvery)
	}
	if w.ClaimTimeout != DefaultClaimTimeout {
		t.Errorf("ClaimTimeout = %v, want %v", w.ClaimTimeout, DefaultClaimTimeout)
	}
	if got := w.ScrapeAddr(); got != DefaultMetricsListen {
		t.Errorf("ScrapeAddr = %q, want %q", got, DefaultMetricsListen)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
worker:
  coordinator: http://coordinator:8080
  index: 3
  metrics_listen: ":9200"
  metrics_advertise: "worker-3:9200"
  progress_every: 5000
  claim_timeout: 30s
  auth:
    mode: apikey
    key_env: PICARLO_TEST_KEY
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	w := cfg.Worker
	if w.Coordinator != "http://coordinator:8080" {
		t.Errorf("Coordinator = %q", w.Coordinator)
	}
	if w.Index != 3 {
		t.Errorf("Index = %d, want 3", w.Index)
	}
	if w.ProgressEvery != 5000 {
		t.Errorf("ProgressEvery = %d, want 5000", w.ProgressEvery)
	}
	if w.ClaimTimeout != 30*time.Second {
		t.Errorf("ClaimTimeout = %v, want 30s", w.ClaimTimeout)
	}
	if got := w.ScrapeAddr(); got != "worker-3:9200" {
		t.Errorf("ScrapeAddr = %q, want advertise address", got)
	}
	if got := w.Auth.EffectiveHeader(); got != "x-api-key" {
		t.Errorf("EffectiveHeader = %q, want default x-api-key", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PICARLO_COORDINATOR", "http://other:8081")
	t.Setenv("PICARLO_WORKER_INDEX", "5")

	cfg, err := Load(writeConfig(t, "worker:\n  index: 1\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Worker.Coordinator != "http://other:8081" {
		t.Errorf("Coordinator = %q, want env override", cfg.Worker.Coordinator)
	}
	if cfg.Worker.Index != 5 {
		t.Errorf("Index = %d, want env override 5", cfg.Worker.Index)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty coordinator", "worker:\n  coordinator: \"\"\n", "coordinator"},
		{"negative index", "worker:\n  index: -1\n", "index"},
		{"zero progress_every", "worker:\n  progress_every: 0\n", "progress_every"},
		{"zero claim_timeout", "worker:\n  claim_timeout: 0s\n", "claim_timeout"},
		{"unknown auth mode", "worker:\n  auth:\n    mode: basic\n", "auth.mode"},
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
