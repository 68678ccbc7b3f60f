package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/runs"
	"github.com/wonny/loadsynth/internal/synthesis"
	"github.com/wonny/loadsynth/pkg/logger"
	"github.com/wonny/loadsynth/pkg/redis"
)

const maxConfigBody = 1 << 20

// RateLimiter bounds synthesis requests
type RateLimiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// LoadPointHandler handles load point endpoints
// ⭐ SSOT: 부하점 API 핸들러는 이 구조체에서만
type LoadPointHandler struct {
	store   loadpoint.Store
	runs    runs.Store
	service *synthesis.Service
	base    *modelconfig.Config
	limiter RateLimiter
	logger  *logger.Logger
}

// NewLoadPointHandler creates a new load point handler.
// base is the model config that request bodies are merged over; limiter may be nil.
func NewLoadPointHandler(
	store loadpoint.Store,
	runStore runs.Store,
	service *synthesis.Service,
	base *modelconfig.Config,
	limiter RateLimiter,
	log *logger.Logger,
) *LoadPointHandler {
	if base == nil {
		base = modelconfig.Default()
	}
	return &LoadPointHandler{
		store:   store,
		runs:    runStore,
		service: service,
		base:    base,
		limiter: limiter,
		logger:  log,
	}
}

// List returns all load point summaries
// GET /api/loadpoints
func (h *LoadPointHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list load points")
		respondError(w, http.StatusInternalServerError, "Failed to list load points")
		return
	}
	if list == nil {
		list = []loadpoint.Summary{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Get returns one load point; ?series=true includes the hourly values
// GET /api/loadpoints/{id}
func (h *LoadPointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	lp, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}

	if r.URL.Query().Get("series") == "true" {
		respondJSON(w, http.StatusOK, lp)
		return
	}
	respondJSON(w, http.StatusOK, lp.Summarize())
}

// Runs lists the newest runs of a load point
// GET /api/loadpoints/{id}/runs?limit=20
func (h *LoadPointHandler) Runs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit'")
			return
		}
		limit = n
	}

	list, err := h.runs.ListByLoadPoint(r.Context(), id, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if list == nil {
		list = []runs.Run{}
	}
	respondJSON(w, http.StatusOK, list)
}

// SynthesizeResponse is the result of an on-demand synthesis
type SynthesizeResponse struct {
	Run      runs.Run              `json:"run"`
	Ensemble interface{}           `json:"ensemble,omitempty"`
	Warnings []modelconfig.Warning `json:"warnings,omitempty"`
}

// Synthesize runs the pipeline for a load point.
// The body holds YAML or JSON model config overrides merged over the server config.
// POST /api/loadpoints/{id}/synthesize?measured_from=2024-01-01
func (h *LoadPointHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if h.limiter != nil {
		allowed, remaining, err := h.limiter.Allow(ctx, redis.SynthesisRateLimit(id))
		if err != nil {
			h.logger.WithError(err).Warn("Rate limiter unavailable")
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				respondError(w, http.StatusTooManyRequests, "Too many synthesis requests for this load point")
				return
			}
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cfg, err := modelconfig.Merge(h.base, body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := synthesis.Request{LoadPointID: id, Config: cfg}
	if v := r.URL.Query().Get("measured_from"); v != "" {
		if req.MeasuredFrom, err = time.Parse(time.DateOnly, v); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'measured_from' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if len(body) > 0 {
		if req.ConfigYAML, err = modelconfig.Marshal(cfg); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to render config")
			return
		}
	}

	out, err := h.service.Synthesize(ctx, req)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("load_point", id).Error("Synthesis failed")
		}
		respondError(w, status, err.Error())
		return
	}

	resp := SynthesizeResponse{Run: *out.Run, Warnings: out.Warnings}
	resp.Run.Synthetic = nil
	if out.Ensemble != nil {
		resp.Ensemble = out.Ensemble.Stats
	}
	respondJSON(w, http.StatusCreated, resp)
}
