package runstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/picarlo/picarlo/pkg/montecarlo"
	"github.com/picarlo/picarlo/pkg/wire"
)

// Sentinel errors surfaced to the API layer.
var (
	// ErrWorkerFailure marks a run aborted because a worker reported an
	// error. There is no partial-result fallback and no retry.
	ErrWorkerFailure = errors.New("worker failure")

	// ErrNoActiveRun means a claim arrived while no run is pending or running.
	ErrNoActiveRun = errors.New("no active run")

	// ErrUnknownRun means the referenced run ID does not exist (or was evicted).
	ErrUnknownRun = errors.New("unknown run")

	// ErrDuplicateReport means a worker index already delivered its report.
	ErrDuplicateReport = errors.New("duplicate report")

	// ErrRunClosed means the run already finished and accepts no more reports.
	ErrRunClosed = errors.New("run already finished")
)

// run is the store's internal record for one estimation run.
type run struct {
	id     string
	spec   wire.RunSpec
	shares []montecarlo.Share
	state  string

	claims   map[int]string            // worker index → metrics addr
	reports  map[int]wire.ShareReport  // worker index → final report
	progress map[int]wire.WorkerProgress

	inside      int64
	samplesDone int64
	estimate    float64
	failure     string

	createdAt time.Time
	updatedAt time.Time
	done      chan struct{} // closed when state becomes done or failed
}

// Target is one worker metrics endpoint the poller should scrape.
type Target struct {
	RunID       string
	WorkerIndex int
	Addr        string
}

// Store is a thread-safe in-memory run registry. A background goroutine
// (Run) evicts finished runs that have not been read within the TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*run
	ttl  time.Duration
	seq  int
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL for finished runs.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*run),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create registers a new run from spec and returns its status. The spec is
// validated by planning its shares, so a bad sample count or worker count is
// rejected before any worker can claim.
func (s *Store) Create(spec wire.RunSpec) (wire.RunStatus, error) {
	shares, err := montecarlo.PlanShares(spec.Samples, spec.Workers, spec.Seed)
	if err != nil {
		return wire.RunStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now()
	r := &run{
		id:       fmt.Sprintf("run-%04d", s.seq),
		spec:     spec,
		shares:   shares,
		state:    wire.StatePending,
		claims:   make(map[int]string),
		reports:  make(map[int]wire.ShareReport),
		progress: make(map[int]wire.WorkerProgress),

		createdAt: now,
		updatedAt: now,
		done:      make(chan struct{}),
	}
	s.data[r.id] = r

	slog.Info("runstore: run created",
		"run", r.id, "samples", spec.Samples, "seed", spec.Seed, "workers", spec.Workers)
	return r.status(), nil
}

// Claim assigns the worker's share of the oldest active run. Claims are
// idempotent per worker index — a worker that restarts before reporting may
// claim again and receives the same share.
func (s *Store) Claim(req wire.ClaimRequest) (wire.ClaimResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.activeLocked()
	if r == nil {
		return wire.ClaimResponse{}, ErrNoActiveRun
	}
	if req.WorkerIndex < 0 || req.WorkerIndex >= r.spec.Workers {
		return wire.ClaimResponse{}, fmt.Errorf("%w: worker index %d out of range [0, %d)",
			montecarlo.ErrInvalidArgument, req.WorkerIndex, r.spec.Workers)
	}

	r.claims[req.WorkerIndex] = req.MetricsAddr
	if len(r.claims) == r.spec.Workers && r.state == wire.StatePending {
		r.state = wire.StateRunning
	}
	r.updatedAt = s.now()

	slog.Debug("runstore: share claimed",
		"run", r.id, "worker", req.WorkerIndex, "metrics_addr", req.MetricsAddr)
	return wire.ClaimResponse{
		RunID: r.id,
		Spec:  r.spec,
		Share: r.shares[req.WorkerIndex],
	}, nil
}

// Record ingests a worker's final report.
//
// A report carrying an error fails the whole run: the reduction needs every
// worker's contribution, so there is no partial result. When the last
// healthy report arrives the estimate is computed as 4 × Σinside / Σsamples
// over the samples actually processed.
func (s *Store) Record(rep wire.ShareReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[rep.RunID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRun, rep.RunID)
	}
	if r.state == wire.StateDone || r.state == wire.StateFailed {
		return fmt.Errorf("%w: %q is %s", ErrRunClosed, r.id, r.state)
	}
	if rep.WorkerIndex < 0 || rep.WorkerIndex >= r.spec.Workers {
		return fmt.Errorf("%w: worker index %d out of range [0, %d)",
			montecarlo.ErrInvalidArgument, rep.WorkerIndex, r.spec.Workers)
	}
	if _, dup := r.reports[rep.WorkerIndex]; dup {
		return fmt.Errorf("%w: worker %d already reported for %q", ErrDuplicateReport, rep.WorkerIndex, r.id)
	}

	r.reports[rep.WorkerIndex] = rep
	r.updatedAt = s.now()

	if rep.Error != "" {
		r.state = wire.StateFailed
		r.failure = fmt.Sprintf("worker %d: %s", rep.WorkerIndex, rep.Error)
		close(r.done)
		slog.Error("runstore: run failed", "run", r.id, "worker", rep.WorkerIndex, "err", rep.Error)
		return nil
	}

	r.inside += rep.Inside
	r.samplesDone += rep.Samples
	slog.Debug("runstore: report recorded",
		"run", r.id, "worker", rep.WorkerIndex, "inside", rep.Inside, "samples", rep.Samples)

	if len(r.reports) == r.spec.Workers {
		r.estimate = montecarlo.Estimate(r.inside, r.samplesDone)
		r.state = wire.StateDone
		close(r.done)
		slog.Info("runstore: run complete",
			"run", r.id, "estimate", r.estimate, "inside", r.inside, "samples", r.samplesDone)
	}
	return nil
}

// SetProgress records a worker's live progress, as observed by the poller.
func (s *Store) SetProgress(runID string, wp wire.WorkerProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.data[runID]; ok {
		r.progress[wp.WorkerIndex] = wp
	}
}

// Get returns the status of one run.
func (s *Store) Get(id string) (wire.RunStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return wire.RunStatus{}, false
	}
	return r.status(), true
}

// List returns the status of every run currently held, oldest first.
func (s *Store) List() []wire.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wire.RunStatus, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, r.status())
	}
	// IDs are zero-padded sequence numbers, so this is creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Targets returns the metrics endpoints of all workers that have claimed a
// share of a still-active run and announced a metrics address.
func (s *Store) Targets() []Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Target
	for _, r := range s.data {
		if r.state != wire.StatePending && r.state != wire.StateRunning {
			continue
		}
		for idx, addr := range r.claims {
			if addr == "" {
				continue
			}
			// Reported workers are final; no need to keep scraping them.
			if _, done := r.reports[idx]; done {
				continue
			}
			out = append(out, Target{RunID: r.id, WorkerIndex: idx, Addr: addr})
		}
	}
	return out
}

// Await blocks until the run finishes or ctx is cancelled. A failed run
// returns the final status together with an ErrWorkerFailure-wrapped error.
func (s *Store) Await(ctx context.Context, id string) (wire.RunStatus, error) {
	s.mu.RLock()
	r, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return wire.RunStatus{}, fmt.Errorf("%w: %q", ErrUnknownRun, id)
	}

	select {
	case <-ctx.Done():
		return wire.RunStatus{}, ctx.Err()
	case <-r.done:
	}

	s.mu.RLock()
	st := r.status()
	s.mu.RUnlock()

	if st.State == wire.StateFailed {
		return st, fmt.Errorf("%w: %s", ErrWorkerFailure, st.Error)
	}
	return st, nil
}

// Evict removes finished runs whose last update is older than now minus TTL.
// Active runs are never evicted — a hung worker leaves its run visible.
// Returns the number of runs removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, r := range s.data {
		finished := r.state == wire.StateDone || r.state == wire.StateFailed
		if finished && !r.updatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("runstore: evicted finished runs", "count", n)
			}
		}
	}
}

// status builds the externally visible view of r. Callers must hold s.mu.
func (r *run) status() wire.RunStatus {
	st := wire.RunStatus{
		ID:          r.id,
		Spec:        r.spec,
		State:       r.state,
		Estimate:    r.estimate,
		Inside:      r.inside,
		SamplesDone: r.samplesDone,
		Error:       r.failure,
		CreatedAt:   r.createdAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.updatedAt.UTC().Format(time.RFC3339),
	}
	for i := 0; i < r.spec.Workers; i++ {
		wp, polled := r.progress[i]
		wp.WorkerIndex = i
		if rep, ok := r.reports[i]; ok {
			wp.Done = rep.Samples
			wp.Inside = rep.Inside
			wp.Reported = true
		} else if !polled {
			continue
		}
		st.Progress = append(st.Progress, wp)
	}
	return st
}

// activeLocked returns the oldest pending or running run. Callers must hold s.mu.
func (s *Store) activeLocked() *run {
	var oldest *run
	for _, r := range s.data {
		if r.state != wire.StatePending && r.state != wire.StateRunning {
			continue
		}
		if oldest == nil || r.createdAt.Before(oldest.createdAt) {
			oldest = r
		}
	}
	return oldest
}
