package handlers

import (
	"net/http"

	"ortografia/internal/service"
)

// ClassroomHandler handles classroom management and enrollment requests
type ClassroomHandler struct {
	classroomService  *service.ClassroomService
	enrollmentService *service.EnrollmentService
}

// NewClassroomHandler creates a new classroom handler
func NewClassroomHandler(classroomService *service.ClassroomService, enrollmentService *service.EnrollmentService) *ClassroomHandler {
	return &ClassroomHandler{
		classroomService:  classroomService,
		enrollmentService: enrollmentService,
	}
}

// Create adds a classroom for the acting teacher
func (h *ClassroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ClassroomInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	classroom, err := h.classroomService.Create(r.Context(), actor(r), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"message": "classroom created", "classroom": classroom})
}

// MyClassrooms lists the acting teacher's active classrooms
func (h *ClassroomHandler) MyClassrooms(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.classroomService.ListForTeacher(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"classrooms": classrooms})
}

// Deactivate closes a classroom and its enrollments
func (h *ClassroomHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "classroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	closed, err := h.classroomService.Deactivate(r.Context(), actor(r), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "classroom deactivated", "enrollments_closed": closed})
}

// Roster lists the students of a classroom
func (h *ClassroomHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "classroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	students, err := h.classroomService.Roster(r.Context(), actor(r), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"students": students})
}

// Available lists the classrooms the acting child may join
func (h *ClassroomHandler) Available(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.enrollmentService.AvailableClassrooms(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"classrooms": classrooms})
}

type searchStudentRequest struct {
	Email string `json:"email"`
}

// SearchStudent looks up a child by email before enrolling them
func (h *ClassroomHandler) SearchStudent(w http.ResponseWriter, r *http.Request) {
	var in searchStudentRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	student, err := h.classroomService.SearchStudent(r.Context(), actor(r), in.Email)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"student": student})
}
