// Package reporter is the worker's HTTP client towards the coordinator:
// claiming a share and delivering the final partial count, with truncated
// exponential backoff on transient failures. A rejected report (4xx) is
// never retried — correctness of the reduction is the coordinator's call.
package reporter
