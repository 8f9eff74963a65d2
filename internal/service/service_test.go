package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ortografia/internal/database"
	"ortografia/internal/models"
	"ortografia/internal/repository"
	"ortografia/internal/security"
)

type fixture struct {
	t             *testing.T
	ctx           context.Context
	db            *database.DB
	users         *repository.UserRepository
	classrooms    *ClassroomService
	enrollment    *EnrollmentService
	relationships *RelationshipService
	words         *WordService
	progress      *ProgressService
	auth          *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	return &fixture{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		users:         repository.NewUserRepository(db),
		classrooms:    NewClassroomService(db, models.DefaultMaxStudents),
		enrollment:    NewEnrollmentService(db, nil),
		relationships: NewRelationshipService(db, nil),
		words:         NewWordService(db),
		progress:      NewProgressService(db),
		auth:          NewAuthService(repository.NewUserRepository(db), security.NewTokenService("test-secret", time.Hour)),
	}
}

func (f *fixture) user(name string, role models.Role) models.Identity {
	f.t.Helper()
	u, err := f.users.CreateUser(f.ctx, name, name+"@example.com", "hash", role)
	require.NoError(f.t, err)
	return u.Identity()
}

func (f *fixture) classroom(teacher models.Identity, name string, max int) *models.Classroom {
	f.t.Helper()
	c, err := f.classrooms.Create(f.ctx, teacher, ClassroomInput{
		Name:        name,
		GradeLevel:  "3",
		Section:     "A",
		SchoolYear:  "2025-2026",
		MaxStudents: max,
	})
	require.NoError(f.t, err)
	return c
}

// fill enrolls n fresh children into the classroom
func (f *fixture) fill(teacher models.Identity, c *models.Classroom, prefix string, n int) []models.Identity {
	f.t.Helper()
	kids := make([]models.Identity, n)
	for i := range kids {
		kids[i] = f.user(fmt.Sprintf("%s%02d", prefix, i), models.RoleChild)
		_, err := f.enrollment.TeacherEnroll(f.ctx, teacher, c.ID, kids[i].ID)
		require.NoError(f.t, err)
	}
	return kids
}

func (f *fixture) activeCount(classroomID int64) int {
	f.t.Helper()
	n, err := repository.NewClassroomRepository(f.db).CountActiveEnrollments(f.ctx, classroomID)
	require.NoError(f.t, err)
	return n
}
