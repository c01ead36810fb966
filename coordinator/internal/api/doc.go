// Package api serves the coordinator's HTTP surface on /api/v1:
//
//   - GET  /api/v1/health   — run counts by state
//   - GET  /api/v1/runs     — list runs
//   - POST /api/v1/runs     — submit a run (num_samples, seed, workers)
//   - GET  /api/v1/runs/{id}
//   - POST /api/v1/claim    — worker claims its share of the active run
//   - POST /api/v1/reports  — worker delivers its partial inside count
//
// All responses are JSON. Authentication is applied by the auth middleware
// before requests reach this handler.
package api
