package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"xbin/internal/apperr"
	"xbin/internal/repo"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}

// writeError maps domain errors onto the single error envelope every failure
// uses: {"error": {"code": ..., "message": ...}}.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	message := "internal server error"

	var v apperr.Validation
	switch {
	case errors.As(err, &v):
		status, code, message = http.StatusUnprocessableEntity, "validation", v.Message
	case errors.Is(err, apperr.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "unauthorized", err.Error()
	case errors.Is(err, apperr.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "you may not act on this resource"
	case errors.Is(err, repo.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, repo.ErrDuplicate):
		status, code, message = http.StatusConflict, "conflict", "resource already exists"
	case errors.Is(err, repo.ErrStatusConflict):
		status, code, message = http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, repo.ErrInUse):
		status, code, message = http.StatusConflict, "in_use", "resource is referenced by other records"
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]string{"code": "bad_request", "message": message},
	})
}

func decodeJSON(body io.Reader, dest any) error {
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
