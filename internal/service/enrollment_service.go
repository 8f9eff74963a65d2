package service

import (
	"context"
	"errors"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/logger"
	"ortografia/internal/models"
	"ortografia/internal/policy"
	"ortografia/internal/repository"
)

// EnrollmentService keeps every student in at most one active classroom.
//
// Each mutation runs its checks and writes in one transaction that first
// locks the target classroom row, so capacity and the single-active rule
// are checked against the state the write lands on. The partial unique
// index on student_enrollments backs the rule up in storage.
type EnrollmentService struct {
	db            *database.DB
	users         *repository.UserRepository
	classrooms    *repository.ClassroomRepository
	enrollments   *repository.EnrollmentRepository
	relationships *repository.RelationshipRepository
	notifier      *NotificationService
}

// NewEnrollmentService creates a new enrollment service. notifier may be nil.
func NewEnrollmentService(db *database.DB, notifier *NotificationService) *EnrollmentService {
	return &EnrollmentService{
		db:            db,
		users:         repository.NewUserRepository(db),
		classrooms:    repository.NewClassroomRepository(db),
		enrollments:   repository.NewEnrollmentRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		notifier:      notifier,
	}
}

// EnrollResult describes a successful enrollment
type EnrollResult struct {
	Enrollment *models.Enrollment `json:"enrollment"`
	Message    string             `json:"message"`
}

// SelfEnroll enrolls the acting child in a classroom
func (s *EnrollmentService) SelfEnroll(ctx context.Context, actor models.Identity, classroomID int64) (*EnrollResult, error) {
	if err := policy.Authorize(actor, policy.SelfEnroll, policy.Resource{SubjectID: actor.ID}); err != nil {
		return nil, err
	}

	var result *EnrollResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		student, err := s.users.WithTx(tx).GetActiveUserByRole(ctx, actor.ID, models.RoleChild)
		if err != nil {
			return err
		}
		if student == nil {
			return fail(ErrNotFound, "student not found")
		}

		c, err := s.classrooms.WithTx(tx).GetSummary(ctx, classroomID, true)
		if err != nil {
			return err
		}

		e, err := s.enroll(ctx, tx, student, c, true, "Self-enrolled")
		if err != nil {
			return err
		}
		result = &EnrollResult{
			Enrollment: e,
			Message:    fmt.Sprintf("You have enrolled in %s with %s", c.Name, c.TeacherName),
		}
		return nil
	})
	return result, s.describeConflict(ctx, actor.ID, err)
}

// TeacherEnroll enrolls a student in a classroom the acting teacher owns.
// The single-active check covers every classroom, not only the teacher's.
func (s *EnrollmentService) TeacherEnroll(ctx context.Context, actor models.Identity, classroomID, studentID int64) (*EnrollResult, error) {
	if err := policy.Screen(actor, policy.EnrollStudent); err != nil {
		return nil, err
	}

	var result *EnrollResult
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		c, err := s.classrooms.WithTx(tx).GetSummary(ctx, classroomID, true)
		if err != nil {
			return err
		}
		if c == nil || !c.Active {
			return fail(ErrNotFound, "classroom not found")
		}
		if err := policy.Authorize(actor, policy.EnrollStudent, policy.Resource{OwnerTeacherID: c.TeacherID}); err != nil {
			return err
		}

		student, err := s.users.WithTx(tx).GetActiveUserByRole(ctx, studentID, models.RoleChild)
		if err != nil {
			return err
		}
		if student == nil {
			return fail(ErrNotFound, "student not found")
		}

		e, err := s.enroll(ctx, tx, student, c, false, fmt.Sprintf("Enrolled by %s", actor.Name))
		if err != nil {
			return err
		}
		result = &EnrollResult{
			Enrollment: e,
			Message:    fmt.Sprintf("%s has been enrolled in %s", student.Name, c.Name),
		}
		return nil
	})
	return result, s.describeConflict(ctx, studentID, err)
}

// enroll applies the checks shared by both enrollment paths inside tx.
// The classroom must already be locked.
func (s *EnrollmentService) enroll(ctx context.Context, tx *database.Tx, student *models.User, c *models.ClassroomSummary, self bool, notes string) (*models.Enrollment, error) {
	current, err := s.enrollments.WithTx(tx).GetActiveForStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, &AlreadyEnrolledError{
			StudentName:   student.Name,
			ClassroomID:   current.ClassroomID,
			ClassroomName: current.ClassroomName,
			TeacherName:   current.TeacherName,
			Since:         current.EnrollmentDate,
			Self:          self,
		}
	}

	if c == nil || !c.Active {
		return nil, fail(ErrNotFound, "classroom not found")
	}
	if c.IsFull() {
		return nil, fail(ErrClassroomFull, "classroom %q is full (%d/%d)", c.Name, c.StudentCount, c.MaxStudents)
	}

	e, err := s.enrollments.WithTx(tx).CreateActive(ctx, student.ID, c.ID, notes)
	if errors.Is(err, repository.ErrConflict) {
		// another request enrolled the student between our check and insert
		return nil, &AlreadyEnrolledError{StudentName: student.Name, Self: self}
	}
	return e, err
}

// describeConflict fills in the blocking enrollment of an AlreadyEnrolledError
// raised by the unique index. The winning row is only visible once our
// transaction has rolled back.
func (s *EnrollmentService) describeConflict(ctx context.Context, studentID int64, err error) error {
	var already *AlreadyEnrolledError
	if !errors.As(err, &already) || already.ClassroomName != "" {
		return err
	}
	current, lookupErr := s.enrollments.GetActiveForStudent(ctx, studentID)
	if lookupErr != nil || current == nil {
		return err
	}
	already.ClassroomID = current.ClassroomID
	already.ClassroomName = current.ClassroomName
	already.TeacherName = current.TeacherName
	already.Since = current.EnrollmentDate
	return err
}

// Transfer moves a student's active enrollment into a classroom the acting
// teacher owns. The old row becomes transferred and the new one active in a
// single transaction.
func (s *EnrollmentService) Transfer(ctx context.Context, actor models.Identity, studentID, newClassroomID int64, reason string) (*EnrollResult, error) {
	if err := policy.Screen(actor, policy.TransferStudent); err != nil {
		return nil, err
	}

	var (
		result  *EnrollResult
		current *models.ActiveEnrollment
		target  *models.ClassroomSummary
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		target, err = s.classrooms.WithTx(tx).GetSummary(ctx, newClassroomID, true)
		if err != nil {
			return err
		}
		if target == nil || !target.Active {
			return fail(ErrNotFound, "new classroom not found")
		}
		if err := policy.Authorize(actor, policy.TransferStudent, policy.Resource{OwnerTeacherID: target.TeacherID}); err != nil {
			return err
		}

		current, err = s.enrollments.WithTx(tx).GetActiveForStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if current == nil {
			return fail(ErrNotEnrolled, "the student is not enrolled in any active classroom")
		}
		if current.ClassroomID == target.ID {
			return fail(ErrValidation, "%s is already in %q", current.StudentName, target.Name)
		}
		if target.IsFull() {
			return fail(ErrClassroomFull, "the new classroom is full (%d/%d)", target.StudentCount, target.MaxStudents)
		}

		notes := reason
		if notes == "" {
			notes = fmt.Sprintf("Transferred to %s", target.Name)
		}
		if err := s.closeEnrollment(ctx, tx, current.ID, models.EnrollmentTransferred, notes); err != nil {
			return err
		}
		e, err := s.enrollments.WithTx(tx).CreateActive(ctx, studentID, target.ID, fmt.Sprintf("Transferred from %s", current.ClassroomName))
		if err != nil {
			return err
		}

		result = &EnrollResult{
			Enrollment: e,
			Message:    fmt.Sprintf("%s has been transferred from %q to %q", current.StudentName, current.ClassroomName, target.Name),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyParents(ctx, studentID, func(contacts []models.Contact) {
		s.notifier.ChildTransferred(ctx, contacts, current.StudentName, current.ClassroomName, target.Name)
	})
	return result, nil
}

// Unenroll ends a student's active enrollment. The acting teacher must own
// the classroom the student is in.
func (s *EnrollmentService) Unenroll(ctx context.Context, actor models.Identity, studentID int64, reason string) (string, error) {
	if err := policy.Screen(actor, policy.UnenrollStudent); err != nil {
		return "", err
	}

	var current *models.ActiveEnrollment
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		current, err = s.enrollments.WithTx(tx).GetActiveForStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if current == nil {
			return fail(ErrNotEnrolled, "the student is not enrolled in any active classroom")
		}
		res := policy.Resource{SubjectID: studentID, SubjectTeacherID: current.TeacherID}
		if err := policy.Authorize(actor, policy.UnenrollStudent, res); err != nil {
			return err
		}

		notes := reason
		if notes == "" {
			notes = fmt.Sprintf("Unenrolled by %s", actor.Name)
		}
		return s.closeEnrollment(ctx, tx, current.ID, models.EnrollmentInactive, notes)
	})
	if err != nil {
		return "", err
	}

	s.notifyParents(ctx, studentID, func(contacts []models.Contact) {
		s.notifier.ChildUnenrolled(ctx, contacts, current.StudentName, current.ClassroomName)
	})
	return fmt.Sprintf("%s has been unenrolled from %q", current.StudentName, current.ClassroomName), nil
}

// closeEnrollment ends an active enrollment inside tx. A row another request
// already closed means the student is no longer enrolled there.
func (s *EnrollmentService) closeEnrollment(ctx context.Context, tx *database.Tx, id int64, status models.EnrollmentStatus, notes string) error {
	err := s.enrollments.WithTx(tx).CloseEnrollment(ctx, id, status, notes)
	if errors.Is(err, repository.ErrNotActive) {
		return fail(ErrNotEnrolled, "the student is no longer enrolled in that classroom")
	}
	return err
}

// AvailableClassrooms lists the classrooms the acting child could join
func (s *EnrollmentService) AvailableClassrooms(ctx context.Context, actor models.Identity) ([]models.ClassroomSummary, error) {
	if err := policy.Authorize(actor, policy.ListAvailableClassrooms, policy.Resource{SubjectID: actor.ID}); err != nil {
		return nil, err
	}
	return s.classrooms.ListAvailableFor(ctx, actor.ID)
}

// CurrentEnrollment returns the acting child's active enrollment, or nil
func (s *EnrollmentService) CurrentEnrollment(ctx context.Context, actor models.Identity) (*models.ActiveEnrollment, error) {
	if err := policy.Authorize(actor, policy.ListAvailableClassrooms, policy.Resource{SubjectID: actor.ID}); err != nil {
		return nil, err
	}
	return s.enrollments.GetActiveForStudent(ctx, actor.ID)
}

func (s *EnrollmentService) notifyParents(ctx context.Context, studentID int64, send func([]models.Contact)) {
	if !s.notifier.IsEnabled() {
		return
	}
	contacts, err := s.relationships.ContactsForChild(ctx, studentID)
	if err != nil {
		logger.Warn("Failed to load parent contacts", "student_id", studentID, "error", err)
		return
	}
	if len(contacts) > 0 {
		send(contacts)
	}
}
