// Package config loads the worker configuration from the `worker:` section
// of config.yaml (the `coordinator:` key is ignored by this binary).
//
// The process launcher supplies "I am worker i" through the index field, the
// PICARLO_WORKER_INDEX environment variable, or the -index flag; everything
// else about the run (sample count, seed, worker count) comes from the
// coordinator when the share is claimed.
package config
