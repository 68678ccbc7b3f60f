package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/plotting"
	"github.com/wonny/loadsynth/internal/runs"
	"github.com/wonny/loadsynth/internal/synthesis"
	"github.com/wonny/loadsynth/pkg/logger"
)

// RunHandler handles stored synthesis runs
type RunHandler struct {
	runs       runs.Store
	loadPoints loadpoint.Store
	service    *synthesis.Service
	logger     *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runStore runs.Store, lps loadpoint.Store, service *synthesis.Service, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runs:       runStore,
		loadPoints: lps,
		service:    service,
		logger:     log,
	}
}

// Get returns a run summary; ?series=true includes the synthetic series
// GET /api/runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var (
		run *runs.Run
		err error
	)
	if r.URL.Query().Get("series") == "true" {
		run, err = h.runs.Get(r.Context(), id)
	} else {
		run, err = h.service.Summary(r.Context(), id)
	}
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// Chart renders the run against its measured load as an interactive HTML page
// GET /api/runs/{id}/chart
func (h *RunHandler) Chart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	run, err := h.runs.Get(ctx, id)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}

	chart := plotting.Chart{
		Title:     "Synthetic load: " + run.LoadPointID,
		Subtitle:  fmt.Sprintf("run %s | variant %s | %s | metric %.1f", run.ID, run.Variant, run.Mode, run.Metric),
		Synthetic: run.Synthetic,
	}
	if lp, err := h.loadPoints.Get(ctx, run.LoadPointID); err == nil {
		chart.Measured = lp.Series
	} else {
		h.logger.WithError(err).WithField("run_id", id).Warn("Measured series unavailable for chart")
	}

	var buf bytes.Buffer
	if err := plotting.RenderHTML(&buf, chart); err != nil {
		h.logger.WithError(err).Error("Failed to render chart")
		respondError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
