package handlers

import (
	"net/http"

	"ortografia/internal/security"
	"ortografia/internal/service"
)

// Services are the dependencies of the HTTP API
type Services struct {
	DB            Pinger
	Auth          *service.AuthService
	Classrooms    *service.ClassroomService
	Enrollment    *service.EnrollmentService
	Relationships *service.RelationshipService
	Words         *service.WordService
	Progress      *service.ProgressService

	// Limiter throttles the auth endpoints; nil disables it
	Limiter       *security.RateLimiter
	UploadMaxSize int64
}

// NewRouter registers every API route and wraps the mux with request logging
func NewRouter(s Services) http.Handler {
	middleware := NewMiddleware(s.Auth, s.Limiter)
	authHandler := NewAuthHandler(s.Auth, s.DB)
	classroomHandler := NewClassroomHandler(s.Classrooms, s.Enrollment)
	enrollmentHandler := NewEnrollmentHandler(s.Enrollment)
	relationshipHandler := NewRelationshipHandler(s.Relationships)
	wordHandler := NewWordHandler(s.Words, s.UploadMaxSize)
	progressHandler := NewProgressHandler(s.Progress)
	auth := middleware.RequireAuth

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", authHandler.Health)
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/titanic/words/active/{difficulty}", wordHandler.Active)
	mux.HandleFunc("GET /api/games/config/{gameType}", progressHandler.GameConfigs)

	mux.HandleFunc("GET /api/auth/verify", auth(authHandler.Verify))

	// Classrooms
	mux.HandleFunc("POST /api/classrooms", auth(classroomHandler.Create))
	mux.HandleFunc("GET /api/classrooms/my-classrooms", auth(classroomHandler.MyClassrooms))
	mux.HandleFunc("GET /api/classrooms/available", auth(classroomHandler.Available))
	mux.HandleFunc("DELETE /api/classrooms/{classroomId}", auth(classroomHandler.Deactivate))
	mux.HandleFunc("GET /api/classrooms/{classroomId}/students", auth(classroomHandler.Roster))
	mux.HandleFunc("POST /api/users/search-student", auth(classroomHandler.SearchStudent))

	// Enrollment
	mux.HandleFunc("POST /api/student/enroll/{classroomId}", auth(enrollmentHandler.SelfEnroll))
	mux.HandleFunc("GET /api/student/classroom", auth(enrollmentHandler.MyClassroom))
	mux.HandleFunc("POST /api/classrooms/{classroomId}/students", auth(enrollmentHandler.TeacherEnroll))
	mux.HandleFunc("POST /api/students/{studentId}/transfer/{newClassroomId}", auth(enrollmentHandler.Transfer))
	mux.HandleFunc("DELETE /api/students/{studentId}/unenroll", auth(enrollmentHandler.Unenroll))

	// Parents
	mux.HandleFunc("POST /api/students/{studentId}/parents", auth(relationshipHandler.LinkParent))
	mux.HandleFunc("GET /api/parents/my-children", auth(relationshipHandler.MyChildren))

	// Words
	mux.HandleFunc("GET /api/titanic/words", auth(wordHandler.List))
	mux.HandleFunc("GET /api/titanic/stats", auth(wordHandler.Stats))
	mux.HandleFunc("GET /api/titanic/words/available", auth(wordHandler.Available))
	mux.HandleFunc("POST /api/titanic/words", auth(wordHandler.Create))
	mux.HandleFunc("POST /api/titanic/words/scoped", auth(wordHandler.CreateScoped))
	mux.HandleFunc("POST /api/titanic/words/import", auth(wordHandler.Import))
	mux.HandleFunc("PUT /api/titanic/words/{id}", auth(wordHandler.Update))
	mux.HandleFunc("DELETE /api/titanic/words/{id}", auth(wordHandler.Delete))
	mux.HandleFunc("PATCH /api/titanic/words/{id}/toggle", auth(wordHandler.Toggle))

	// Progress and reports
	mux.HandleFunc("POST /api/games/save-progress", auth(progressHandler.SaveProgress))
	mux.HandleFunc("GET /api/games/progress", auth(progressHandler.Progress))
	mux.HandleFunc("GET /api/games/progress/{userId}", auth(progressHandler.Progress))
	mux.HandleFunc("POST /api/games/config", auth(progressHandler.CreateGameConfig))
	mux.HandleFunc("GET /api/reports/classroom/{classroomId}/progress", auth(progressHandler.ClassroomReport))
	mux.HandleFunc("GET /api/dashboard/teacher", auth(progressHandler.TeacherDashboard))

	return Logging(mux)
}
