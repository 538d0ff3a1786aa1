package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/human-centric-engineering/sunrise/internal/adapter/api/middleware"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	uc     *usecase.UserUseCase
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(uc *usecase.UserUseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// Create registers a new account.
// POST /api/admin/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "email and password are required")
		return
	}

	in := usecase.CreateUserInput{Email: payload.Email, Name: payload.Name, Password: payload.Password}
	if payload.Role != "" {
		role, err := domain.ParseRole(payload.Role)
		if err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, "role must be admin or member")
			return
		}
		in.Role = role
	}

	user, err := h.uc.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			respondWithError(w, h.logger, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, envelope{Success: true, Data: user})
}

// List returns every account.
// GET /api/admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.uc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: users})
}

// Me returns the calling user's account.
// GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.uc.Get(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "account no longer exists")
			return
		}
		h.logger.Error("failed to load account", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: user})
}

// UpdateMe changes the calling user's profile.
// PATCH /api/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondWithError(w, h.logger, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == "" && payload.Password == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "nothing to update")
		return
	}

	user, err := h.uc.UpdateProfile(r.Context(), session.UserID, payload.Name, payload.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "account no longer exists")
			return
		}
		h.logger.Error("failed to update profile", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: user})
}
