package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortografia/internal/database"
	"ortografia/internal/models"
	"ortografia/internal/repository"
)

func TestSelfEnrollRejectsSecondClassroom(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	a := f.classroom(teacher, "A", 40)
	b := f.classroom(teacher, "B", 40)
	f.fill(teacher, a, "kid", 5)

	x := f.user("x", models.RoleChild)
	res, err := f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "A")
	assert.Equal(t, 6, f.activeCount(a.ID))

	_, err = f.enrollment.SelfEnroll(f.ctx, x, b.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	var already *AlreadyEnrolledError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, a.ID, already.ClassroomID)
	assert.Equal(t, "A", already.ClassroomName)
	assert.Equal(t, "teacher", already.TeacherName)
	assert.Contains(t, err.Error(), `"A"`)
	assert.Equal(t, 0, f.activeCount(b.ID))
}

func TestSelfEnrollTwiceIntoSameClassroom(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	a := f.classroom(teacher, "A", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.NoError(t, err)
	_, err = f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, 1, f.activeCount(a.ID))
}

func TestSelfEnrollErrors(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	parent := f.user("parent", models.RoleParent)
	x := f.user("x", models.RoleChild)
	full := f.classroom(teacher, "Full", 1)
	f.fill(teacher, full, "kid", 1)

	_, err := f.enrollment.SelfEnroll(f.ctx, x, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.enrollment.SelfEnroll(f.ctx, x, full.ID)
	assert.ErrorIs(t, err, ErrClassroomFull)
	assert.Equal(t, 1, f.activeCount(full.ID))

	_, err = f.enrollment.SelfEnroll(f.ctx, parent, full.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	closed := f.classroom(teacher, "Closed", 10)
	_, err = f.classrooms.Deactivate(f.ctx, teacher, closed.ID)
	require.NoError(t, err)
	_, err = f.enrollment.SelfEnroll(f.ctx, x, closed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeacherEnrollRejectsFullClassroom(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	c := f.classroom(teacher, "C", 40)
	f.fill(teacher, c, "s", 40)
	require.Equal(t, 40, f.activeCount(c.ID))

	late := f.user("late", models.RoleChild)
	_, err := f.enrollment.TeacherEnroll(f.ctx, teacher, c.ID, late.ID)
	require.ErrorIs(t, err, ErrClassroomFull)
	assert.Contains(t, err.Error(), "40/40")
	assert.Equal(t, 40, f.activeCount(c.ID))
}

func TestTeacherEnrollChecks(t *testing.T) {
	f := newFixture(t)
	t1 := f.user("t1", models.RoleTeacher)
	t2 := f.user("t2", models.RoleTeacher)
	mine := f.classroom(t1, "Mine", 40)
	theirs := f.classroom(t2, "Theirs", 40)
	x := f.user("x", models.RoleChild)
	parent := f.user("parent", models.RoleParent)

	t.Run("foreign classroom is forbidden", func(t *testing.T) {
		_, err := f.enrollment.TeacherEnroll(f.ctx, t1, theirs.ID, x.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("parent is forbidden before lookup", func(t *testing.T) {
		_, err := f.enrollment.TeacherEnroll(f.ctx, parent, 12345, x.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.enrollment.TeacherEnroll(f.ctx, t1, mine.ID, 12345)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("parent account is not a student", func(t *testing.T) {
		_, err := f.enrollment.TeacherEnroll(f.ctx, t1, mine.ID, parent.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("enrollment elsewhere blocks", func(t *testing.T) {
		_, err := f.enrollment.TeacherEnroll(f.ctx, t2, theirs.ID, x.ID)
		require.NoError(t, err)

		_, err = f.enrollment.TeacherEnroll(f.ctx, t1, mine.ID, x.ID)
		require.ErrorIs(t, err, ErrAlreadyEnrolled)
		assert.Contains(t, err.Error(), "t2")
	})

	t.Run("inactive student", func(t *testing.T) {
		y := f.user("y", models.RoleChild)
		require.NoError(t, f.users.SetActive(f.ctx, y.ID, false))
		_, err := f.enrollment.TeacherEnroll(f.ctx, t1, mine.ID, y.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransferKeepsHistoryAndProgress(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner", models.RoleTeacher)
	dest := f.user("dest", models.RoleTeacher)
	a := f.classroom(owner, "A", 40)
	b := f.classroom(dest, "B", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.NoError(t, err)
	_, err = f.progress.RecordSession(f.ctx, x, SessionInput{GameType: models.GameTitanic, Score: 90, Completed: true})
	require.NoError(t, err)

	res, err := f.enrollment.Transfer(f.ctx, dest, x.ID, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, b.ID, res.Enrollment.ClassroomID)
	assert.Contains(t, res.Message, `from "A" to "B"`)

	history, err := repository.NewEnrollmentRepository(f.db).ListForStudent(f.ctx, x.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	statuses := map[int64]models.EnrollmentStatus{}
	for _, e := range history {
		statuses[e.ClassroomID] = e.Status
	}
	assert.Equal(t, models.EnrollmentTransferred, statuses[a.ID])
	assert.Equal(t, models.EnrollmentActive, statuses[b.ID])
	assert.Equal(t, 0, f.activeCount(a.ID))
	assert.Equal(t, 1, f.activeCount(b.ID))

	report, err := f.progress.Progress(f.ctx, x, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.TotalSessions)
	assert.Equal(t, 1, report.Stats.ByGameType[models.GameTitanic].Sessions)
}

func TestTransferErrors(t *testing.T) {
	f := newFixture(t)
	t1 := f.user("t1", models.RoleTeacher)
	t2 := f.user("t2", models.RoleTeacher)
	a := f.classroom(t1, "A", 40)
	full := f.classroom(t1, "Full", 1)
	f.fill(t1, full, "f", 1)
	foreign := f.classroom(t2, "Foreign", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.Transfer(f.ctx, t1, x.ID, a.ID, "")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.enrollment.TeacherEnroll(f.ctx, t1, a.ID, x.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Transfer(f.ctx, t1, x.ID, full.ID, "")
	assert.ErrorIs(t, err, ErrClassroomFull)

	_, err = f.enrollment.Transfer(f.ctx, t1, x.ID, foreign.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.enrollment.Transfer(f.ctx, t1, x.ID, a.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.enrollment.Transfer(f.ctx, t1, x.ID, 999, "")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := repository.NewEnrollmentRepository(f.db).GetActiveForStudent(f.ctx, x.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, a.ID, active.ClassroomID, "failed transfers must leave the enrollment untouched")
}

func TestUnenroll(t *testing.T) {
	f := newFixture(t)
	t1 := f.user("t1", models.RoleTeacher)
	t2 := f.user("t2", models.RoleTeacher)
	a := f.classroom(t1, "A", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.Unenroll(f.ctx, t1, x.ID, "")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.enrollment.TeacherEnroll(f.ctx, t1, a.ID, x.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Unenroll(f.ctx, t2, x.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	msg, err := f.enrollment.Unenroll(f.ctx, t1, x.ID, "moved away")
	require.NoError(t, err)
	assert.Contains(t, msg, `"A"`)
	assert.Equal(t, 0, f.activeCount(a.ID))

	// the student may enroll again afterwards
	_, err = f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.NoError(t, err)
}

func TestCloseEnrollmentAlreadyClosed(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	a := f.classroom(teacher, "A", 40)
	x := f.user("x", models.RoleChild)

	res, err := f.enrollment.TeacherEnroll(f.ctx, teacher, a.ID, x.ID)
	require.NoError(t, err)

	// another request closed the row after ours read it
	require.NoError(t, f.enrollment.enrollments.CloseEnrollment(f.ctx, res.Enrollment.ID, models.EnrollmentInactive, "first"))

	err = f.db.WithTx(f.ctx, func(tx *database.Tx) error {
		return f.enrollment.closeEnrollment(f.ctx, tx, res.Enrollment.ID, models.EnrollmentTransferred, "second")
	})
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.NotErrorIs(t, err, repository.ErrNotActive)
}

func TestDescribeConflictNamesBlockingClassroom(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	a := f.classroom(teacher, "A", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.SelfEnroll(f.ctx, x, a.ID)
	require.NoError(t, err)

	// the shape raised when the unique index rejects the insert
	bare := &AlreadyEnrolledError{StudentName: "x", Self: true}
	err = f.enrollment.describeConflict(f.ctx, x.ID, bare)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	var already *AlreadyEnrolledError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, a.ID, already.ClassroomID)
	assert.Equal(t, "A", already.ClassroomName)
	assert.Equal(t, "teacher", already.TeacherName)
	assert.False(t, already.Since.IsZero())
	assert.Contains(t, err.Error(), `"A" with teacher`)

	assert.NoError(t, f.enrollment.describeConflict(f.ctx, x.ID, nil))
	other := errors.New("boom")
	assert.Equal(t, other, f.enrollment.describeConflict(f.ctx, x.ID, other))
}

func TestAvailableClassrooms(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	x := f.user("x", models.RoleChild)

	older, err := f.classrooms.Create(f.ctx, teacher, ClassroomInput{Name: "Old", GradeLevel: "2", Section: "A", SchoolYear: "2024-2025"})
	require.NoError(t, err)
	newerB, err := f.classrooms.Create(f.ctx, teacher, ClassroomInput{Name: "NewB", GradeLevel: "2", Section: "B", SchoolYear: "2025-2026"})
	require.NoError(t, err)
	newerA, err := f.classrooms.Create(f.ctx, teacher, ClassroomInput{Name: "NewA", GradeLevel: "2", Section: "A", SchoolYear: "2025-2026"})
	require.NoError(t, err)
	full := f.classroom(teacher, "Full", 1)
	f.fill(teacher, full, "k", 1)

	list, err := f.enrollment.AvailableClassrooms(f.ctx, x)
	require.NoError(t, err)
	ids := make([]int64, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	assert.Equal(t, []int64{newerA.ID, newerB.ID, older.ID}, ids)
	assert.Equal(t, models.DefaultMaxStudents, list[0].MaxStudents)

	_, err = f.enrollment.SelfEnroll(f.ctx, x, newerA.ID)
	require.NoError(t, err)
	list, err = f.enrollment.AvailableClassrooms(f.ctx, x)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	current, err := f.enrollment.CurrentEnrollment(f.ctx, x)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "NewA", current.ClassroomName)

	_, err = f.enrollment.AvailableClassrooms(f.ctx, teacher)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentEnrollmentKeepsInvariants(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)

	rooms := make([]*models.Classroom, 5)
	for i := range rooms {
		rooms[i] = f.classroom(teacher, string(rune('A'+i)), 40)
	}
	x := f.user("x", models.RoleChild)

	small := f.classroom(teacher, "Small", 3)
	kids := make([]models.Identity, 10)
	for i := range kids {
		kids[i] = f.user(fmt.Sprintf("racer%02d", i), models.RoleChild)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for _, room := range rooms {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.enrollment.SelfEnroll(context.Background(), x, id)
			if err != nil && !errors.Is(err, ErrAlreadyEnrolled) {
				t.Errorf("unexpected error: %v", err)
			}
		}(room.ID)
	}
	for _, kid := range kids {
		wg.Add(1)
		go func(kid models.Identity) {
			defer wg.Done()
			_, err := f.enrollment.SelfEnroll(context.Background(), kid, small.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrClassroomFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(kid)
	}
	wg.Wait()

	history, err := repository.NewEnrollmentRepository(f.db).ListForStudent(f.ctx, x.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "exactly one active enrollment per student")

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 7, full)
	assert.Equal(t, 3, f.activeCount(small.ID))
}

type fakeSES struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, in.Destination.ToAddresses[0])
	return &sesv2.SendEmailOutput{}, nil
}

func TestTransferNotifiesLinkedParents(t *testing.T) {
	f := newFixture(t)
	ses := &fakeSES{}
	notifier := newNotificationService(ses, NotificationSettings{FromEmail: "school@example.com", FromName: "School"})
	f.enrollment = NewEnrollmentService(f.db, notifier)
	f.relationships = NewRelationshipService(f.db, notifier)

	teacher := f.user("teacher", models.RoleTeacher)
	mom := f.user("mom", models.RoleParent)
	a := f.classroom(teacher, "A", 40)
	b := f.classroom(teacher, "B", 40)
	x := f.user("x", models.RoleChild)

	_, err := f.enrollment.TeacherEnroll(f.ctx, teacher, a.ID, x.ID)
	require.NoError(t, err)
	_, err = f.relationships.LinkParentChild(f.ctx, teacher, x.ID, LinkInput{ParentID: mom.ID, IsPrimary: true})
	require.NoError(t, err)
	require.Equal(t, []string{"mom@example.com"}, ses.sent)

	_, err = f.enrollment.Transfer(f.ctx, teacher, x.ID, b.ID, "")
	require.NoError(t, err)
	_, err = f.enrollment.Unenroll(f.ctx, teacher, x.ID, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"mom@example.com", "mom@example.com", "mom@example.com"}, ses.sent)
}
