package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/loadpoint"
	"github.com/wonny/loadsynth/internal/modelconfig"
	"github.com/wonny/loadsynth/internal/runs"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	var verr modelconfig.ValidationError
	switch {
	case errors.Is(err, loadpoint.ErrNotFound), errors.Is(err, runs.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrDataLengthMismatch),
		errors.Is(err, contracts.ErrInsufficientData),
		errors.Is(err, contracts.ErrInvalidPeak),
		errors.Is(err, contracts.ErrDegenerateProfile),
		errors.Is(err, contracts.ErrEmptyDistribution),
		errors.Is(err, contracts.ErrRangeMismatch),
		errors.Is(err, contracts.ErrNoNormalYear),
		errors.Is(err, contracts.ErrUnknownVariant):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
