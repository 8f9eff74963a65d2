package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// EnrollmentRepository handles database operations for student enrollments
type EnrollmentRepository struct {
	db database.DBTX
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db database.DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *EnrollmentRepository) WithTx(tx *database.Tx) *EnrollmentRepository {
	return &EnrollmentRepository{db: tx}
}

// GetActiveForStudent returns the student's single active enrollment, or nil
func (r *EnrollmentRepository) GetActiveForStudent(ctx context.Context, studentID int64) (*models.ActiveEnrollment, error) {
	query := `
		SELECT se.id, se.student_id, se.classroom_id, se.status, se.enrollment_date, se.notes,
			s.name, c.name, c.teacher_id, t.name
		FROM student_enrollments se
		JOIN users s ON s.id = se.student_id
		JOIN classrooms c ON c.id = se.classroom_id
		JOIN users t ON t.id = c.teacher_id
		WHERE se.student_id = ? AND se.status = 'active'
	`
	e := &models.ActiveEnrollment{}
	err := r.db.QueryRowContext(ctx, query, studentID).Scan(
		&e.ID,
		&e.StudentID,
		&e.ClassroomID,
		&e.Status,
		&e.EnrollmentDate,
		&e.Notes,
		&e.StudentName,
		&e.ClassroomName,
		&e.TeacherID,
		&e.TeacherName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active enrollment: %w", err)
	}
	return e, nil
}

// CreateActive inserts an active enrollment. A second active row for the
// same student fails with ErrConflict.
func (r *EnrollmentRepository) CreateActive(ctx context.Context, studentID, classroomID int64, notes string) (*models.Enrollment, error) {
	e := &models.Enrollment{
		StudentID:      studentID,
		ClassroomID:    classroomID,
		Status:         models.EnrollmentActive,
		EnrollmentDate: now(),
		Notes:          notes,
	}
	query := `
		INSERT INTO student_enrollments (student_id, classroom_id, status, enrollment_date, notes)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, e.StudentID, e.ClassroomID, string(e.Status), e.EnrollmentDate, e.Notes)
	if err != nil {
		return nil, wrapWrite(r.db, "create enrollment", err)
	}
	e.ID = id
	return e, nil
}

// CloseEnrollment moves an active enrollment to a terminal status
func (r *EnrollmentRepository) CloseEnrollment(ctx context.Context, id int64, status models.EnrollmentStatus, notes string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE student_enrollments SET status = ?, notes = ? WHERE id = ? AND status = 'active'",
		string(status), notes, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update enrollment %d: %w", id, ErrNotActive)
	}
	return nil
}

// CloseAllInClassroom marks every active enrollment of a classroom inactive
func (r *EnrollmentRepository) CloseAllInClassroom(ctx context.Context, classroomID int64, notes string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE student_enrollments SET status = ?, notes = ? WHERE classroom_id = ? AND status = 'active'",
		string(models.EnrollmentInactive), notes, classroomID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close enrollments: %w", err)
	}
	return result.RowsAffected()
}

// ListForStudent returns the student's enrollment history, newest first
func (r *EnrollmentRepository) ListForStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return r.list(ctx, `
		SELECT id, student_id, classroom_id, status, enrollment_date, notes
		FROM student_enrollments WHERE student_id = ?
		ORDER BY enrollment_date DESC, id DESC
	`, studentID)
}

// ListAll returns every enrollment row for export
func (r *EnrollmentRepository) ListAll(ctx context.Context) ([]models.Enrollment, error) {
	return r.list(ctx, "SELECT id, student_id, classroom_id, status, enrollment_date, notes FROM student_enrollments ORDER BY id")
}

func (r *EnrollmentRepository) list(ctx context.Context, query string, args ...any) ([]models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.ClassroomID, &e.Status, &e.EnrollmentDate, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}
