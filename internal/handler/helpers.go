package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/tys-station-agent/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleServiceError maps domain errors to HTTP responses.
// Collaborator, store and profiling failures all surface as 500 with the
// underlying message.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var unsupported *domain.ErrUnsupported
	var remote *domain.ErrRemote
	var transport *domain.ErrTransport
	var circuitOpen *domain.ErrCircuitOpen
	var store *domain.ErrStore
	var profiling *domain.ErrProfiling

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &unsupported):
		logger.Debug("unsupported operation", zap.String("error", err.Error()))
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.As(err, &profiling):
		logger.Error("profiling error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &remote):
		logger.Error("remote rejected request",
			zap.String("service", remote.Service),
			zap.Int("status", remote.Status),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &transport), errors.As(err, &circuitOpen):
		logger.Error("collaborator unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &store):
		logger.Error("profile store error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
