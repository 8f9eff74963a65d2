package service

import (
	"context"
	"math"
	"strings"

	"ortografia/internal/database"
	"ortografia/internal/models"
	"ortografia/internal/policy"
	"ortografia/internal/repository"
	"ortografia/internal/validation"
)

// ClassroomInput is the body of a create classroom request
type ClassroomInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	GradeLevel  string `json:"grade_level" validate:"required,notblank,max=50"`
	Section     string `json:"section" validate:"required,notblank,max=20"`
	SchoolYear  string `json:"school_year" validate:"max=20"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1,max=500"`
}

// ClassroomService owns classrooms and the questions asked about them
type ClassroomService struct {
	db                 *database.DB
	users              *repository.UserRepository
	classrooms         *repository.ClassroomRepository
	enrollments        *repository.EnrollmentRepository
	relationships      *repository.RelationshipRepository
	defaultMaxStudents int
}

// NewClassroomService creates a new classroom service
func NewClassroomService(db *database.DB, defaultMaxStudents int) *ClassroomService {
	if defaultMaxStudents <= 0 {
		defaultMaxStudents = models.DefaultMaxStudents
	}
	return &ClassroomService{
		db:                 db,
		users:              repository.NewUserRepository(db),
		classrooms:         repository.NewClassroomRepository(db),
		enrollments:        repository.NewEnrollmentRepository(db),
		relationships:      repository.NewRelationshipRepository(db),
		defaultMaxStudents: defaultMaxStudents,
	}
}

// Create adds a classroom owned by the acting teacher
func (s *ClassroomService) Create(ctx context.Context, actor models.Identity, in ClassroomInput) (*models.Classroom, error) {
	if err := policy.Authorize(actor, policy.CreateClassroom, policy.Resource{}); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.GradeLevel = strings.TrimSpace(in.GradeLevel)
	in.Section = strings.TrimSpace(in.Section)
	in.SchoolYear = strings.TrimSpace(in.SchoolYear)
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if in.MaxStudents == 0 {
		in.MaxStudents = s.defaultMaxStudents
	}

	return s.classrooms.CreateClassroom(ctx, &models.Classroom{
		Name:        in.Name,
		TeacherID:   actor.ID,
		GradeLevel:  in.GradeLevel,
		Section:     in.Section,
		SchoolYear:  in.SchoolYear,
		MaxStudents: in.MaxStudents,
	})
}

// ListForTeacher returns the acting teacher's active classrooms with live counts
func (s *ClassroomService) ListForTeacher(ctx context.Context, actor models.Identity) ([]models.ClassroomSummary, error) {
	if err := policy.Screen(actor, policy.ManageClassroom); err != nil {
		return nil, err
	}
	return s.classrooms.ListForTeacher(ctx, actor.ID)
}

// IsOwnedBy reports whether teacherID owns the classroom
func (s *ClassroomService) IsOwnedBy(ctx context.Context, classroomID, teacherID int64) (bool, error) {
	c, err := s.classrooms.GetSummary(ctx, classroomID, false)
	if err != nil {
		return false, err
	}
	return c != nil && c.TeacherID == teacherID, nil
}

// Deactivate closes a classroom. Its active enrollments become inactive in
// the same transaction.
func (s *ClassroomService) Deactivate(ctx context.Context, actor models.Identity, classroomID int64) (int64, error) {
	if err := policy.Screen(actor, policy.ManageClassroom); err != nil {
		return 0, err
	}

	var closed int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := s.classrooms.WithTx(tx).GetSummary(ctx, classroomID, true)
		if err != nil {
			return err
		}
		if c == nil || !c.Active {
			return fail(ErrNotFound, "classroom not found")
		}
		if err := policy.Authorize(actor, policy.ManageClassroom, policy.Resource{OwnerTeacherID: c.TeacherID}); err != nil {
			return err
		}

		closed, err = s.enrollments.WithTx(tx).CloseAllInClassroom(ctx, classroomID, "Classroom closed")
		if err != nil {
			return err
		}
		return s.classrooms.WithTx(tx).Deactivate(ctx, classroomID)
	})
	return closed, err
}

// Roster lists the students of a classroom. The owner and parents of a
// student enrolled there may read it.
func (s *ClassroomService) Roster(ctx context.Context, actor models.Identity, classroomID int64) ([]models.RosterEntry, error) {
	if err := policy.Screen(actor, policy.ViewClassroomRoster); err != nil {
		return nil, err
	}

	c, err := s.classrooms.GetSummary(ctx, classroomID, false)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.Active {
		return nil, fail(ErrNotFound, "classroom not found")
	}

	res := policy.Resource{OwnerTeacherID: c.TeacherID}
	if actor.Role == models.RoleParent {
		if res.ParentIDs, err = s.relationships.ParentIDsForClassroom(ctx, classroomID); err != nil {
			return nil, err
		}
	}
	if err := policy.Authorize(actor, policy.ViewClassroomRoster, res); err != nil {
		return nil, err
	}

	roster, err := s.classrooms.Roster(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	for i := range roster {
		roster[i].AverageScore = roundScore(roster[i].AverageScore)
	}
	return roster, nil
}

// SearchStudent finds an active child by email so a teacher can enroll them.
// A child already in one of the teacher's classrooms is reported as such.
func (s *ClassroomService) SearchStudent(ctx context.Context, actor models.Identity, email string) (*models.User, error) {
	if err := policy.Authorize(actor, policy.SearchStudent, policy.Resource{}); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalid(err)
	}

	student, err := s.users.FindActiveChildByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fail(ErrNotFound, "no student found with that email")
	}

	current, err := s.enrollments.GetActiveForStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.TeacherID == actor.ID {
		return nil, &AlreadyEnrolledError{
			StudentName:   student.Name,
			ClassroomID:   current.ClassroomID,
			ClassroomName: current.ClassroomName,
			TeacherName:   current.TeacherName,
			Since:         current.EnrollmentDate,
		}
	}
	return student, nil
}

// roundScore rounds an average to one decimal
func roundScore(avg *float64) *float64 {
	if avg == nil {
		return nil
	}
	r := math.Round(*avg*10) / 10
	return &r
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
