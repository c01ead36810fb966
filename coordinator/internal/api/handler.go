package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/picarlo/picarlo/coordinator/internal/runstore"
	"github.com/picarlo/picarlo/pkg/montecarlo"
	"github.com/picarlo/picarlo/pkg/wire"
)

// Handler is the HTTP handler for all /api/v1/* endpoints: the run API read
// by clients and the claim/report intake called by workers.
type Handler struct {
	store *runstore.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given run store and registers all routes.
func New(st *runstore.Store) *Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/runs", h.runs)
	h.mux.HandleFunc("/api/v1/runs/", h.getRun) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/claim", h.claim)
	h.mux.HandleFunc("/api/v1/reports", h.report)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — run counts by state.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	runs := h.store.List()
	resp := HealthResponse{Status: "ok", RunCount: len(runs)}
	for _, rs := range runs {
		switch rs.State {
		case wire.StatePending:
			resp.Pending++
		case wire.StateRunning:
			resp.Running++
		case wire.StateDone:
			resp.Done++
		case wire.StateFailed:
			resp.Failed++
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// runs handles GET /api/v1/runs (list) and POST /api/v1/runs (submit).
func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, h.store.List())

	case http.MethodPost:
		var req SubmitRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		samples, err := montecarlo.ParseSampleCount(string(req.NumSamples))
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}

		rs, err := h.store.Create(wire.RunSpec{
			Samples: samples,
			Seed:    req.Seed,
			Workers: req.Workers,
		})
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Info("api: run submitted", "run", rs.ID, "samples", samples, "workers", req.Workers)
		jsonResp(w, http.StatusCreated, rs)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// getRun returns GET /api/v1/runs/{id} — a single run's status.
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" {
		h.runs(w, r)
		return
	}

	rs, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "run not found")
		return
	}
	jsonResp(w, http.StatusOK, rs)
}

// claim handles POST /api/v1/claim — a worker claiming its share of the
// active run. While no run exists yet the response is 503, which workers
// treat as retryable.
func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req wire.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	resp, err := h.store.Claim(req)
	switch {
	case errors.Is(err, runstore.ErrNoActiveRun):
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, montecarlo.ErrInvalidArgument):
		jsonErr(w, http.StatusBadRequest, err.Error())
	case err != nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	default:
		jsonResp(w, http.StatusOK, resp)
	}
}

// report handles POST /api/v1/reports — a worker delivering its final
// partial count.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var rep wire.ShareReport
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	err := h.store.Record(rep)
	switch {
	case errors.Is(err, runstore.ErrUnknownRun):
		jsonErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, runstore.ErrDuplicateReport), errors.Is(err, runstore.ErrRunClosed):
		jsonErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, montecarlo.ErrInvalidArgument):
		jsonErr(w, http.StatusBadRequest, err.Error())
	case err != nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
	default:
		jsonResp(w, http.StatusOK, wire.ReportResponse{Ok: true})
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
