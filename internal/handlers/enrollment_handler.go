package handlers

import (
	"net/http"

	"ortografia/internal/service"
)

// EnrollmentHandler handles moving students in and out of classrooms
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// SelfEnroll enrolls the acting child in the classroom in the path
func (h *EnrollmentHandler) SelfEnroll(w http.ResponseWriter, r *http.Request) {
	classroomID, err := pathID(r, "classroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	res, err := h.enrollmentService.SelfEnroll(r.Context(), actor(r), classroomID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": res.Message, "enrollment": res.Enrollment})
}

// MyClassroom returns the acting child's current enrollment, or null
func (h *EnrollmentHandler) MyClassroom(w http.ResponseWriter, r *http.Request) {
	current, err := h.enrollmentService.CurrentEnrollment(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"enrollment": current})
}

type teacherEnrollRequest struct {
	StudentID int64 `json:"student_id"`
}

// TeacherEnroll enrolls a student in one of the acting teacher's classrooms
func (h *EnrollmentHandler) TeacherEnroll(w http.ResponseWriter, r *http.Request) {
	classroomID, err := pathID(r, "classroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in teacherEnrollRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	if in.StudentID <= 0 {
		respondWithError(w, r, badRequest("student_id is required"))
		return
	}

	res, err := h.enrollmentService.TeacherEnroll(r.Context(), actor(r), classroomID, in.StudentID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": res.Message, "enrollment": res.Enrollment})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Transfer moves a student into one of the acting teacher's classrooms
func (h *EnrollmentHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	classroomID, err := pathID(r, "newClassroomId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in reasonRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	res, err := h.enrollmentService.Transfer(r.Context(), actor(r), studentID, classroomID, in.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": res.Message, "enrollment": res.Enrollment})
}

// Unenroll removes a student from the acting teacher's classroom
func (h *EnrollmentHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in reasonRequest
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	message, err := h.enrollmentService.Unenroll(r.Context(), actor(r), studentID, in.Reason)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": message})
}
