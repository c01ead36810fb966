package reporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/picarlo/picarlo/pkg/montecarlo"
	"github.com/picarlo/picarlo/pkg/wire"
	"github.com/picarlo/picarlo/worker/internal/config"
)

func workerCfg(url string) config.WorkerConfig {
	return config.WorkerConfig{Coordinator: url}
}

func TestClaim_RetriesUntilRunExists(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First call: no active run yet. Second call: share assigned.
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(wire.ClaimResponse{ //nolint:errcheck
			RunID: "run-0001",
			Share: montecarlo.Share{Index: 0, Samples: 500, Seed: 5},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := New(workerCfg(srv.URL)).Claim(ctx, wire.ClaimRequest{WorkerIndex: 0})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if resp.RunID != "run-0001" || resp.Share.Samples != 500 {
		t.Errorf("claim = %+v, want run-0001 with 500 samples", resp)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestReport_PermanentRejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "duplicate report"}) //nolint:errcheck
	}))
	defer srv.Close()

	err := New(workerCfg(srv.URL)).Report(context.Background(), wire.ShareReport{
		RunID: "run-0001", WorkerIndex: 0, Samples: 500, Inside: 400,
	})
	if err == nil {
		t.Fatal("Report: expected error on 409")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want exactly 1 (no retry)", got)
	}
}

func TestReport_Delivers(t *testing.T) {
	var got wire.ShareReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode report: %v", err)
		}
		json.NewEncoder(w).Encode(wire.ReportResponse{Ok: true}) //nolint:errcheck
	}))
	defer srv.Close()

	rep := wire.ShareReport{RunID: "run-0001", WorkerIndex: 1, Samples: 500, Inside: 393}
	if err := New(workerCfg(srv.URL)).Report(context.Background(), rep); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got != rep {
		t.Errorf("server received %+v, want %+v", got, rep)
	}
}

func TestAuthHeaderInjected(t *testing.T) {
	t.Setenv("PICARLO_TEST_KEY", "secret")

	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode(wire.ReportResponse{Ok: true}) //nolint:errcheck
	}))
	defer srv.Close()

	cfg := workerCfg(srv.URL)
	cfg.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "PICARLO_TEST_KEY"}

	if err := New(cfg).Report(context.Background(), wire.ShareReport{RunID: "r", Samples: 1}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if header != "secret" {
		t.Errorf("x-api-key = %q, want secret", header)
	}
}
