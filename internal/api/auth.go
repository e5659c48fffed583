package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bobarin/aistudio/internal/auth"
	"github.com/bobarin/aistudio/internal/db"
	"github.com/bobarin/aistudio/internal/models"
)

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to hash password")
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Plan:         models.PlanFree,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("registration failed")
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("user registered")
	respondJSON(w, http.StatusOK, models.NewUserResponse(user))
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.log.Error().Err(err).Msg("failed to load user for login")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := h.tokens.Sign(user.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign token")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.NewUserResponse(currentUser(r)))
}
