// Package wire defines the JSON types exchanged between picarlo-worker and
// picarlo-coordinator. These are the canonical wire shapes for claiming a
// share, reporting a partial count, and reading run status; both binaries
// marshal exactly these structs.
package wire

import "github.com/picarlo/picarlo/pkg/montecarlo"

// Run states as reported by the coordinator.
const (
	StatePending = "pending" // created, not all workers have claimed
	StateRunning = "running" // all shares claimed, reports outstanding
	StateDone    = "done"    // all reports in, estimate computed
	StateFailed  = "failed"  // a worker reported failure; no estimate
)

// RunSpec describes a distributed estimation run.
type RunSpec struct {
	// Samples is the total sample count across all workers.
	Samples int64 `json:"num_samples"`

	// Seed is the base seed; worker i draws with Seed+i.
	Seed int64 `json:"seed"`

	// Workers is the number of worker processes the run expects.
	Workers int `json:"workers"`
}

// ClaimRequest is sent by worker i to claim its share of the active run.
type ClaimRequest struct {
	// WorkerIndex identifies the worker within the run, in [0, Workers).
	WorkerIndex int `json:"worker_index"`

	// MetricsAddr is the optional host:port where the worker exposes its
	// progress metrics for the coordinator's poller.
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// ClaimResponse carries the assigned share back to the worker.
type ClaimResponse struct {
	RunID string           `json:"run_id"`
	Spec  RunSpec          `json:"spec"`
	Share montecarlo.Share `json:"share"`
}

// ShareReport is a worker's final contribution to a run. A non-empty Error
// marks the worker as failed and fails the whole run.
type ShareReport struct {
	RunID       string `json:"run_id"`
	WorkerIndex int    `json:"worker_index"`

	// Samples is the number of points the worker actually drew.
	Samples int64 `json:"samples"`

	// Inside is the worker's partial inside count.
	Inside int64 `json:"inside"`

	Error string `json:"error,omitempty"`
}

// ReportResponse acknowledges a ShareReport.
type ReportResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// WorkerProgress is one worker's live progress within a RunStatus.
type WorkerProgress struct {
	WorkerIndex int   `json:"worker_index"`
	Done        int64 `json:"done"`
	Inside      int64 `json:"inside"`
	Reported    bool  `json:"reported"`
}

// RunStatus is the coordinator's view of one run.
type RunStatus struct {
	ID    string  `json:"id"`
	Spec  RunSpec `json:"spec"`
	State string  `json:"state"`

	// Estimate is the final π estimate; only meaningful when State is done.
	Estimate float64 `json:"estimate,omitempty"`

	// Inside and SamplesDone aggregate the reported partial counts.
	Inside      int64 `json:"inside"`
	SamplesDone int64 `json:"samples_done"`

	Progress []WorkerProgress `json:"progress,omitempty"`

	// Error describes the failure when State is failed.
	Error string `json:"error,omitempty"`

	CreatedAt string `json:"created_at"` // RFC3339
	UpdatedAt string `json:"updated_at"` // RFC3339
}
