// Package progress exposes the worker's live sampling counters as a
// Prometheus text exposition, so the coordinator's poller (or any scraper)
// can watch a share advance before the final report is delivered.
package progress
