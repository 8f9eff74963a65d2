package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// ReportRepository computes read-side projections over classrooms, enrollments and sessions
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// ClassroomProgress returns one row per actively enrolled student. Rows come
// back ordered by name; callers apply the ranking they need.
func (r *ReportRepository) ClassroomProgress(ctx context.Context, classroomID int64) ([]models.StudentReport, error) {
	d := r.db.GetDialect()

	selectCols := `
		SELECT u.id, u.name,
			COUNT(gs.id),
			COUNT(CASE WHEN gs.completed = ` + d.BoolValue(true) + ` THEN 1 END),
			AVG(gs.score),
			COALESCE(SUM(gs.time_spent), 0),
			MAX(gs.created_at)`
	args := []any{}
	for _, gt := range models.GameTypes {
		selectCols += ",\n\t\t\tCOUNT(CASE WHEN gs.game_type = ? THEN 1 END)"
		args = append(args, gt)
	}
	query := selectCols + `
		FROM student_enrollments se
		JOIN users u ON u.id = se.student_id
		LEFT JOIN game_sessions gs ON gs.user_id = u.id
		WHERE se.classroom_id = ? AND se.status = 'active'
		GROUP BY u.id, u.name
		ORDER BY u.name
	`
	args = append(args, classroomID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build classroom report: %w", err)
	}
	defer rows.Close()

	report := []models.StudentReport{}
	for rows.Next() {
		var (
			row    models.StudentReport
			avg    sql.NullFloat64
			last   database.NullTime
			counts = make([]int, len(models.GameTypes))
		)
		dest := []any{&row.StudentID, &row.StudentName, &row.TotalSessions, &row.CompletedSessions, &avg, &row.TotalTimeSpent, &last}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}

		row.AverageScore = float64Ptr(avg)
		row.LastActivity = last.Ptr()
		row.SessionsByGame = make(map[string]int, len(models.GameTypes))
		for i, gt := range models.GameTypes {
			row.SessionsByGame[gt] = counts[i]
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// TeacherDashboard computes the headline counts for a teacher. Recent
// activity counts sessions since the given time played by students actively
// enrolled in the teacher's classrooms.
func (r *ReportRepository) TeacherDashboard(ctx context.Context, teacherID int64, since time.Time) (*models.TeacherDashboard, error) {
	d := r.db.GetDialect()
	dash := &models.TeacherDashboard{}

	queries := []struct {
		dest  *int
		query string
		args  []any
	}{
		{
			dest:  &dash.TotalClassrooms,
			query: "SELECT COUNT(*) FROM classrooms WHERE teacher_id = ? AND active = " + d.BoolValue(true),
			args:  []any{teacherID},
		},
		{
			dest: &dash.TotalStudents,
			query: `
				SELECT COUNT(DISTINCT se.student_id)
				FROM classrooms c
				JOIN student_enrollments se ON se.classroom_id = c.id
				WHERE c.teacher_id = ? AND se.status = 'active'`,
			args: []any{teacherID},
		},
		{
			dest: &dash.RecentActivity,
			query: `
				SELECT COUNT(*)
				FROM game_sessions gs
				JOIN student_enrollments se ON se.student_id = gs.user_id AND se.status = 'active'
				JOIN classrooms c ON c.id = se.classroom_id
				WHERE c.teacher_id = ? AND gs.created_at >= ?`,
			args: []any{teacherID, since.UTC()},
		},
		{
			dest:  &dash.WordsCreated,
			query: "SELECT COUNT(*) FROM titanic_words WHERE created_by = ?",
			args:  []any{teacherID},
		},
	}

	for _, q := range queries {
		if err := r.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("failed to compute dashboard: %w", err)
		}
	}
	return dash, nil
}
