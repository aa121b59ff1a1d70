package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devandress/Estacion-metereologica/pkg/database"
	"github.com/devandress/Estacion-metereologica/pkg/share"
)

// errorResponse is the uniform error body of the API
type errorResponse struct {
	Error string `json:"error"`
}

func (rm *RouteManager) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			rm.app.log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func (rm *RouteManager) writeError(w http.ResponseWriter, status int, message string) {
	rm.writeJSON(w, status, errorResponse{Error: message})
}

// handleError maps domain errors onto HTTP statuses. Internal details never
// reach the response body.
func (rm *RouteManager) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, database.ErrNotFound):
		rm.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, share.ErrExpired):
		rm.writeError(w, http.StatusForbidden, "expired")
	case errors.Is(err, share.ErrQuotaExceeded):
		rm.writeError(w, http.StatusForbidden, "quota_exceeded")
	case errors.Is(err, share.ErrCapabilityDenied):
		rm.writeError(w, http.StatusForbidden, "this link does not permit the requested operation")
	case errors.As(err, &validationErrs):
		rm.writeError(w, http.StatusBadRequest, validationErrs.Error())
	case database.IsUniqueViolation(err):
		rm.writeError(w, http.StatusBadRequest, "duplicate value violates a uniqueness constraint")
	default:
		rm.app.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		rm.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody parses a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}
