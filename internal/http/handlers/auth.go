package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"creativelab/internal/domain"
	"creativelab/internal/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	User      userDTO   `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userDTO struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}
	session, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
			return
		}
		a.Logger.Error().Err(err).Msg("login failed")
		a.error(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}
	a.json(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		User:      userDTO{Email: session.User.Email, Name: session.User.Name},
		ExpiresAt: session.ExpiresAt,
	})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, userDTO{Email: email})
}
