package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps the error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidRange),
		errors.Is(err, apperr.ErrDateSetMismatch),
		errors.Is(err, apperr.ErrInvalidName),
		errors.Is(err, apperr.ErrInvalidBudget):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnknownScenario), errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrScenarioExists), errors.Is(err, apperr.ErrStalePlan):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}
