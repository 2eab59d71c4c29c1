package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/Studia/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps core errors to HTTP statuses.
func statusFor(err error) int {
	var (
		extractErr *core.ExtractionError
		genErr     *core.StudyMaterialGenerationError
	)
	switch {
	case errors.As(err, &extractErr), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, core.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Unclassified errors are
// logged and their text is not exposed; consistency errors keep theirs.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	var consErr *core.ConsistencyError
	if status == http.StatusInternalServerError && !errors.As(err, &consErr) {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}
