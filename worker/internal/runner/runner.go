package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/picarlo/picarlo/pkg/montecarlo"
	"github.com/picarlo/picarlo/pkg/wire"
	"github.com/picarlo/picarlo/worker/internal/config"
	"github.com/picarlo/picarlo/worker/internal/progress"
)

// failureReportTimeout bounds the best-effort delivery of an error report.
const failureReportTimeout = 15 * time.Second

// coordinator is the subset of the reporter client the runner needs.
// Abstracted so tests can inject an in-memory fake.
type coordinator interface {
	Claim(ctx context.Context, req wire.ClaimRequest) (wire.ClaimResponse, error)
	Report(ctx context.Context, rep wire.ShareReport) error
}

// Runner executes one worker's life cycle: claim a share, sample it, report
// the partial count. One Runner, one share, one report.
type Runner struct {
	cfg     config.WorkerConfig
	coord   coordinator
	tracker *progress.Tracker
}

// New creates a Runner for the given worker configuration.
func New(cfg config.WorkerConfig, coord coordinator) *Runner {
	return &Runner{
		cfg:     cfg,
		coord:   coord,
		tracker: progress.NewTracker(0),
	}
}

// Tracker returns the progress tracker, for serving on /metrics.
func (r *Runner) Tracker() *progress.Tracker { return r.tracker }

// Run claims this worker's share, draws it to completion, and delivers the
// report. The sampling loop itself has no suspension points — once started
// it runs to the end; cancellation is only honoured between the phases.
//
// If the worker cannot complete after a successful claim, a failure report
// is delivered (best effort) so the coordinator aborts the run instead of
// waiting forever.
func (r *Runner) Run(ctx context.Context) error {
	claimCtx, cancel := context.WithTimeout(ctx, r.cfg.ClaimTimeout)
	defer cancel()

	resp, err := r.coord.Claim(claimCtx, wire.ClaimRequest{
		WorkerIndex: r.cfg.Index,
		MetricsAddr: r.cfg.ScrapeAddr(),
	})
	if err != nil {
		return fmt.Errorf("worker %d: %w", r.cfg.Index, err)
	}

	slog.Info("runner: share claimed",
		"run", resp.RunID,
		"worker", r.cfg.Index,
		"samples", resp.Share.Samples,
		"seed", resp.Share.Seed,
	)
	r.tracker.SetShare(resp.Share.Samples)

	if err := ctx.Err(); err != nil {
		r.reportFailure(resp.RunID, fmt.Sprintf("cancelled before sampling: %v", err))
		return fmt.Errorf("worker %d: %w", r.cfg.Index, err)
	}

	start := time.Now()
	inside := montecarlo.CountInside(resp.Share, r.cfg.ProgressEvery, r.tracker.Update)
	r.tracker.Update(resp.Share.Samples, inside)

	slog.Info("runner: share complete",
		"run", resp.RunID,
		"worker", r.cfg.Index,
		"inside", inside,
		"samples", resp.Share.Samples,
		"elapsed", time.Since(start),
	)

	err = r.coord.Report(ctx, wire.ShareReport{
		RunID:       resp.RunID,
		WorkerIndex: r.cfg.Index,
		Samples:     resp.Share.Samples,
		Inside:      inside,
	})
	if err != nil {
		return fmt.Errorf("worker %d: %w", r.cfg.Index, err)
	}
	return nil
}

// reportFailure delivers an error report so the run fails fast. Delivery is
// best effort — if it cannot be sent the coordinator's operator will see the
// run stall instead.
func (r *Runner) reportFailure(runID, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), failureReportTimeout)
	defer cancel()

	err := r.coord.Report(ctx, wire.ShareReport{
		RunID:       runID,
		WorkerIndex: r.cfg.Index,
		Error:       msg,
	})
	if err != nil {
		slog.Error("runner: failed to deliver failure report",
			"run", runID, "worker", r.cfg.Index, "err", err)
	}
}
