package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ortografia/internal/logger"
	"ortografia/internal/models"
	"ortografia/internal/security"
	"ortografia/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	IdentityContextKey  ContextKey = "identity"
	RequestIDContextKey ContextKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. A nil limiter disables rate limiting.
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid bearer token. The token is
// resolved to the user's current identity so a changed role or a disabled
// account takes effect immediately.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondWithError(w, r, &service.Failure{Kind: service.ErrUnauthenticated, Message: "access token required"})
			return
		}

		user, err := m.authService.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, user.Identity())
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects clients that exceed the configured request rate
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests, try again later"})
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware tags each request with an id and logs it when done
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
		)
	})
}

// IdentityFromContext retrieves the authenticated identity from the request context
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(models.Identity)
	return id, ok
}

// RequestIDFromContext retrieves the request id set by Logging
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// actor is the identity of a request that passed RequireAuth
func actor(r *http.Request) models.Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}
