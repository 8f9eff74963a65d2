package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// ClassroomRepository handles database operations for classrooms
type ClassroomRepository struct {
	db database.DBTX
}

// NewClassroomRepository creates a new classroom repository
func NewClassroomRepository(db database.DBTX) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ClassroomRepository) WithTx(tx *database.Tx) *ClassroomRepository {
	return &ClassroomRepository{db: tx}
}

// summarySelect reads a classroom with its teacher name and live active count
const summarySelect = `
	SELECT c.id, c.name, c.teacher_id, c.grade_level, c.section, c.school_year,
		c.max_students, c.active, c.created_at, u.name,
		(SELECT COUNT(*) FROM student_enrollments se
			WHERE se.classroom_id = c.id AND se.status = 'active')
	FROM classrooms c
	JOIN users u ON u.id = c.teacher_id
`

func scanSummary(row interface{ Scan(...any) error }) (*models.ClassroomSummary, error) {
	s := &models.ClassroomSummary{}
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.TeacherID,
		&s.GradeLevel,
		&s.Section,
		&s.SchoolYear,
		&s.MaxStudents,
		&s.Active,
		&s.CreatedAt,
		&s.TeacherName,
		&s.StudentCount,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateClassroom inserts a classroom
func (r *ClassroomRepository) CreateClassroom(ctx context.Context, c *models.Classroom) (*models.Classroom, error) {
	c.CreatedAt = now()
	c.Active = true
	query := `
		INSERT INTO classrooms (name, teacher_id, grade_level, section, school_year, max_students, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, c.Name, c.TeacherID, c.GradeLevel, c.Section, c.SchoolYear, c.MaxStudents, c.Active, c.CreatedAt)
	if err != nil {
		return nil, wrapWrite(r.db, "create classroom", err)
	}
	c.ID = id
	return c, nil
}

// GetSummary retrieves a classroom with its live student count.
// With lock set, the classroom row stays locked until the transaction ends.
func (r *ClassroomRepository) GetSummary(ctx context.Context, id int64, lock bool) (*models.ClassroomSummary, error) {
	if lock {
		var lockedID int64
		err := r.db.QueryRowContext(ctx, "SELECT id FROM classrooms WHERE id = ?"+r.db.GetDialect().ForUpdate(), id).Scan(&lockedID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock classroom: %w", err)
		}
	}

	summary, err := scanSummary(r.db.QueryRowContext(ctx, summarySelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classroom: %w", err)
	}
	return summary, nil
}

// CountActiveEnrollments returns the live number of active students
func (r *ClassroomRepository) CountActiveEnrollments(ctx context.Context, classroomID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM student_enrollments WHERE classroom_id = ? AND status = 'active'",
		classroomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

func (r *ClassroomRepository) listSummaries(ctx context.Context, query string, args ...any) ([]models.ClassroomSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classrooms: %w", err)
	}
	defer rows.Close()

	classrooms := []models.ClassroomSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classroom: %w", err)
		}
		classrooms = append(classrooms, *s)
	}
	return classrooms, rows.Err()
}

// ListForTeacher returns the teacher's active classrooms, newest first
func (r *ClassroomRepository) ListForTeacher(ctx context.Context, teacherID int64) ([]models.ClassroomSummary, error) {
	return r.listSummaries(ctx, summarySelect+`
		WHERE c.teacher_id = ? AND c.active = ?
		ORDER BY c.created_at DESC, c.id DESC
	`, teacherID, true)
}

// ListAvailableFor returns active classrooms with a free seat that the
// student is not actively enrolled in
func (r *ClassroomRepository) ListAvailableFor(ctx context.Context, studentID int64) ([]models.ClassroomSummary, error) {
	return r.listSummaries(ctx, summarySelect+`
		WHERE c.active = ?
			AND NOT EXISTS (
				SELECT 1 FROM student_enrollments own
				WHERE own.classroom_id = c.id AND own.student_id = ? AND own.status = 'active'
			)
			AND (SELECT COUNT(*) FROM student_enrollments se2
				WHERE se2.classroom_id = c.id AND se2.status = 'active') < c.max_students
		ORDER BY c.school_year DESC, c.grade_level, c.section, c.id
	`, true, studentID)
}

// ListAll returns every classroom for export
func (r *ClassroomRepository) ListAll(ctx context.Context) ([]models.ClassroomSummary, error) {
	return r.listSummaries(ctx, summarySelect+" ORDER BY c.id")
}

// Deactivate marks a classroom inactive
func (r *ClassroomRepository) Deactivate(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE classrooms SET active = ? WHERE id = ?", false, id); err != nil {
		return fmt.Errorf("failed to deactivate classroom: %w", err)
	}
	return nil
}

// Roster lists the students actively enrolled in a classroom with their activity
func (r *ClassroomRepository) Roster(ctx context.Context, classroomID int64) ([]models.RosterEntry, error) {
	query := `
		SELECT u.id, u.name, u.email, se.enrollment_date,
			(SELECT COUNT(*) FROM game_sessions gs WHERE gs.user_id = u.id),
			(SELECT AVG(gs.score) FROM game_sessions gs WHERE gs.user_id = u.id),
			(SELECT MAX(gs.created_at) FROM game_sessions gs WHERE gs.user_id = u.id)
		FROM student_enrollments se
		JOIN users u ON u.id = se.student_id
		WHERE se.classroom_id = ? AND se.status = 'active'
		ORDER BY u.name
	`
	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	defer rows.Close()

	roster := []models.RosterEntry{}
	for rows.Next() {
		var (
			entry models.RosterEntry
			avg   sql.NullFloat64
			last  database.NullTime
		)
		if err := rows.Scan(&entry.StudentID, &entry.Name, &entry.Email, &entry.EnrollmentDate, &entry.GamesPlayed, &avg, &last); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entry.AverageScore = float64Ptr(avg)
		entry.LastActivity = last.Ptr()
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}
