package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/picarlo/picarlo/coordinator/internal/api"
	"github.com/picarlo/picarlo/coordinator/internal/auth"
	"github.com/picarlo/picarlo/coordinator/internal/config"
	"github.com/picarlo/picarlo/coordinator/internal/poller"
	"github.com/picarlo/picarlo/coordinator/internal/runstore"
	"github.com/picarlo/picarlo/coordinator/internal/ws"
	"github.com/picarlo/picarlo/pkg/wire"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("picarlo-coordinator starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Coordinator.HTTPPort,
		"run_workers", cfg.Coordinator.Run.Workers,
		"run_ttl", cfg.Coordinator.RunTTL,
		"auth_mode", cfg.Coordinator.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run store with background TTL eviction.
	st := runstore.New(cfg.Coordinator.RunTTL)
	go st.Run(ctx)

	// Progress poller — scrapes claimed workers' metrics endpoints.
	go poller.New(st, cfg.Coordinator.PollInterval).Run(ctx)

	// WebSocket hub — pushes run status to connected clients.
	hub := ws.New(st, cfg.Coordinator.BroadcastInterval)
	go hub.Run(ctx)

	// Watch config file for hot-reload (logs only in this phase).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "run_workers", updated.Coordinator.Run.Workers)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Combined HTTP server: REST API + worker intake + WebSocket hub,
	// behind optional API key auth.
	protect := auth.APIKeyMiddleware(
		cfg.Coordinator.Auth.Mode,
		cfg.Coordinator.Auth.EffectiveHeader(),
		cfg.Coordinator.Auth.Key(),
	)
	mux := http.NewServeMux()
	mux.Handle("/api/", protect(api.New(st)))
	mux.Handle("/ws/runs", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Coordinator.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Coordinator.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	exitCode := 0

	// Auto-create the configured run and wait for its result. Workers claim
	// shares over the API; a worker failure fails the run and the process.
	if cfg.Coordinator.Run.Workers > 0 {
		params, err := cfg.Coordinator.Run.Params()
		if err != nil {
			slog.Error("invalid startup run", "err", err)
			os.Exit(1)
		}
		spec := wire.RunSpec{
			Samples: params.Samples,
			Seed:    params.Seed,
			Workers: cfg.Coordinator.Run.Workers,
		}
		status, err := st.Create(spec)
		if err != nil {
			slog.Error("failed to create startup run", "err", err)
			os.Exit(1)
		}

		go func() {
			final, err := st.Await(ctx, status.ID)
			if err != nil {
				if errors.Is(err, runstore.ErrWorkerFailure) {
					slog.Error("startup run failed", "run", status.ID, "err", err)
					exitCode = 1
					cancel()
				}
				return
			}
			diff := math.Abs(final.Estimate - math.Pi)
			fmt.Printf("pi is approximately %.8f\n", final.Estimate)
			fmt.Printf("difference: %.8f (%.6f%%)\n", diff, diff/math.Pi*100)
			slog.Info("startup run complete",
				"run", final.ID,
				"estimate", final.Estimate,
				"samples", final.SamplesDone,
				"workers", spec.Workers,
			)
		}()
	}

	<-ctx.Done()
	slog.Info("picarlo-coordinator shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
	os.Exit(exitCode)
}
