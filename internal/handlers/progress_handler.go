package handlers

import (
	"net/http"

	"ortografia/internal/service"
)

// ProgressHandler handles game sessions, reports and game configs
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// SaveProgress records a finished or abandoned game for the acting user
func (h *ProgressHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	var in service.SessionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	session, err := h.progressService.RecordSession(r.Context(), actor(r), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"message": "progress saved", "session": session})
}

// Progress returns the session history and aggregate of the user in the
// path, or of the acting user when the path has none
func (h *ProgressHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := actor(r).ID
	if r.PathValue("userId") != "" {
		id, err := pathID(r, "userId")
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		userID = id
	}

	report, err := h.progressService.Progress(r.Context(), actor(r), userID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"progress": report.Sessions, "stats": report.Stats})
}

// ClassroomReport returns per-student progress for a classroom
func (h *ProgressHandler) ClassroomReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "classroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	report, err := h.progressService.ClassroomReport(r.Context(), actor(r), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"report": report})
}

// TeacherDashboard returns the acting teacher's headline counts
func (h *ProgressHandler) TeacherDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.progressService.TeacherDashboard(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"dashboard": dashboard})
}

// GameConfigs returns the active word sets of a game type. No token needed.
func (h *ProgressHandler) GameConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.progressService.GameConfigs(r.Context(), r.PathValue("gameType"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"configs": configs})
}

// CreateGameConfig stores a word set for a game
func (h *ProgressHandler) CreateGameConfig(w http.ResponseWriter, r *http.Request) {
	var in service.GameConfigInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	cfg, err := h.progressService.CreateGameConfig(r.Context(), actor(r), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"config": cfg})
}
