// Package config loads the coordinator configuration from the `coordinator:`
// section of config.yaml (the `worker:` key is ignored by this binary).
//
// Config fields:
//   - HTTPPort          — port for REST API, report intake, and WebSocket hub (default 8080)
//   - Run               — startup run: num_samples, seed, workers (workers 0 disables)
//   - RunTTL            — how long finished runs stay queryable (default 1h)
//   - BroadcastInterval — WebSocket push cadence (default 2s)
//   - PollInterval      — worker progress scrape cadence (default 2s)
//   - Auth.Mode         — "apikey" or "none"; key resolved from Auth.KeyEnv
//
// Load(path) applies defaults, unmarshals yaml, applies PICARLO_* environment
// overrides, then validates. Watch(ctx, path, fn) hot-reloads on file change.
package config
