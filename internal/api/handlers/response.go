package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/apprating/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/apprating/pkg/errors"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error to its HTTP status. Internal details of
// non-client errors are logged, not returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	case apperrors.ErrorTypeStorage:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("storage unavailable")
		respondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// degraded reports whether err only means persistence failed while the in-memory
// result is still valid, and returns the warning to attach to the response.
func degraded(err error) (string, bool) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeStorage:
		return "change kept in memory but not persisted", true
	case apperrors.ErrorTypeCorrupt:
		return "stored data was unreadable and has been replaced", true
	}
	return "", false
}

// degradedRead is degraded for reads, where nothing in storage was overwritten.
func degradedRead(err error) (string, bool) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeStorage:
		return "storage unreadable, serving the last known data", true
	case apperrors.ErrorTypeCorrupt:
		return "stored data was unreadable and has been ignored", true
	}
	return "", false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
