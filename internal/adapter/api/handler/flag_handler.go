package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// FlagHandler handles HTTP requests for feature flags.
type FlagHandler struct {
	uc     *usecase.FlagUseCase
	logger *slog.Logger
}

// NewFlagHandler creates a new FlagHandler.
func NewFlagHandler(uc *usecase.FlagUseCase, logger *slog.Logger) *FlagHandler {
	return &FlagHandler{uc: uc, logger: logger}
}

// Evaluate answers whether a flag is on for the calling client.
// GET /api/flags/{key}
func (h *FlagHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	enabled, err := h.uc.Evaluate(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "unknown flag")
			return
		}
		h.logger.Error("failed to evaluate flag", "error", err, "key", key)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: map[string]any{"key": key, "enabled": enabled}})
}

// List returns every known flag with overrides applied.
// GET /api/admin/flags
func (h *FlagHandler) List(w http.ResponseWriter, r *http.Request) {
	flags, err := h.uc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list flags", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: flags})
}

// Upsert writes a flag override.
// PUT /api/admin/flags/{key}
func (h *FlagHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "flag key is required")
		return
	}

	var payload struct {
		Enabled     bool   `json:"enabled"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	flag, err := h.uc.Upsert(r.Context(), key, payload.Enabled, payload.Description)
	if err != nil {
		h.logger.Error("failed to upsert flag", "error", err, "key", key)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: flag})
}
