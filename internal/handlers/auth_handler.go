package handlers

import (
	"context"
	"net/http"

	"ortografia/internal/service"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AuthHandler handles registration, login and health checks
type AuthHandler struct {
	authService *service.AuthService
	db          Pinger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, db Pinger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		db:          db,
	}
}

// Register creates an account and returns a token for it
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	res, err := h.authService.Register(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":    "user registered",
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login accepts an email or a user name with the password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	res, err := h.authService.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message":    "login successful",
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

// Verify echoes the identity behind the bearer token
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{"user": actor(r)})
}

// Health reports whether the server can reach its database
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "database unavailable"})
		return
	}
	respond(w, http.StatusOK, map[string]any{"status": "ok"})
}
