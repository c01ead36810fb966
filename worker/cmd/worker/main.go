package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/picarlo/picarlo/worker/internal/config"
	"github.com/picarlo/picarlo/worker/internal/reporter"
	"github.com/picarlo/picarlo/worker/internal/runner"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	index := flag.Int("index", -1, "worker index; overrides the config value when >= 0")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *index >= 0 {
		cfg.Worker.Index = *index
	}

	slog.Info("picarlo-worker starting",
		"coordinator", cfg.Worker.Coordinator,
		"index", cfg.Worker.Index,
		"metrics_listen", cfg.Worker.MetricsListen,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := runner.New(cfg.Worker, reporter.New(cfg.Worker))

	// Progress metrics endpoint, scraped by the coordinator for the
	// lifetime of the run.
	mux := http.NewServeMux()
	mux.Handle("/metrics", run.Tracker())
	metricsSrv := &http.Server{Addr: cfg.Worker.MetricsListen, Handler: mux}
	go func() {
		slog.Info("metrics endpoint listening", "addr", cfg.Worker.MetricsListen)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "err", err)
		}
	}()

	// One-shot: claim a share, sample it, deliver the report, exit.
	err = run.Run(ctx)
	metricsSrv.Shutdown(context.Background()) //nolint:errcheck
	if err != nil {
		slog.Error("worker run failed", "index", cfg.Worker.Index, "err", err)
		os.Exit(1)
	}
	slog.Info("worker run complete", "index", cfg.Worker.Index)
}
