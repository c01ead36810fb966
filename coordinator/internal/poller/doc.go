// Package poller scrapes the Prometheus text endpoints of claimed workers
// and feeds live sample counts into the run store.
package poller
