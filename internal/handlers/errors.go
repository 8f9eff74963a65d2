package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"ortografia/internal/logger"
	"ortografia/internal/service"
)

// maxBodySize caps JSON request bodies
const maxBodySize = 1 << 20

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// respond writes a successful reply. fields are merged next to success.
func respond(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, status, body)
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrClassroomFull),
		errors.Is(err, service.ErrNotEnrolled),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicateWord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes err as {success:false, error, details}. Errors
// the service layer did not classify are logged and hidden from the client.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		body.Error = "internal server error"
		writeJSON(w, status, body)
		return
	}

	var already *service.AlreadyEnrolledError
	var failure *service.Failure
	switch {
	case errors.As(err, &already):
		body.Details = already
	case errors.As(err, &failure) && failure.Details != nil:
		body.Details = failure.Details
	}
	writeJSON(w, status, body)
}

func badRequest(message string) error {
	return &service.Failure{Kind: service.ErrValidation, Message: message}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return badRequest("request body too large")
	}
	return badRequest("invalid JSON body")
}

// pathID parses a numeric path segment
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}
