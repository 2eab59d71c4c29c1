package handlers

import (
	"log/slog"
	"net/http"

	appMiddleware "github.com/markdave123-py/Studia/internal/api/middlewares"
	"github.com/markdave123-py/Studia/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	usage  *services.UsageService
	logger *slog.Logger
}

func NewUserHandler(users *services.UserService, usage *services.UsageService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, usage: usage, logger: logger}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	u, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	recs, err := h.usage.ListUsage(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
