package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/markdave123-py/Studia/internal/api/middlewares"
	"github.com/markdave123-py/Studia/internal/services"
)

type MaterialHandler struct {
	docs   *services.DocumentService
	usage  *services.UsageService
	logger *slog.Logger
}

func NewMaterialHandler(docs *services.DocumentService, usage *services.UsageService, logger *slog.Logger) *MaterialHandler {
	return &MaterialHandler{docs: docs, usage: usage, logger: logger}
}

func (h *MaterialHandler) GetMaterials(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	list, err := h.docs.ListMaterials(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	m, err := h.docs.GetMaterial(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type usageRequest struct {
	Credits int `json:"credits"`
}

// RecordUsage spends credits on a material.
func (h *MaterialHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}
	var req usageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rec, err := h.usage.RecordUsage(r.Context(), userID, chi.URLParam(r, "id"), req.Credits)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
