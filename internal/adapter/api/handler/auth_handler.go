package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/adapter/api/middleware"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// AuthHandler handles HTTP requests for login, logout and token issuance.
type AuthHandler struct {
	uc            *usecase.AuthUseCase
	logger        *slog.Logger
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(uc *usecase.AuthUseCase, logger *slog.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger, secureCookies: secureCookies}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login opens a session and sets the session cookie.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.uc.Login(r.Context(), creds.Email, creds.Password, clientIP(r))
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: session})
}

// Logout drops the session and expires the cookie.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.uc.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to drop session", "error", err)
			respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true})
}

// IssueToken exchanges credentials for a bearer token.
// POST /api/auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	signed, err := h.uc.IssueToken(r.Context(), creds.Email, creds.Password, clientIP(r))
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: map[string]string{"token": signed}})
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsPayload, bool) {
	var creds credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return credentialsPayload{}, false
	}
	if creds.Email == "" || creds.Password == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "email and password are required")
		return credentialsPayload{}, false
	}
	return creds, true
}

func (h *AuthHandler) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, h.logger, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrRateLimited):
		respondWithError(w, h.logger, http.StatusTooManyRequests, "too many attempts, slow down")
	default:
		h.logger.Error("login failed", "error", err)
		respondWithError(w, h.logger, http.StatusInternalServerError, "internal server error")
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
