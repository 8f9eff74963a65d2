package models

import "time"

// DefaultMaxStudents is used when a classroom is created without a capacity
const DefaultMaxStudents = 40

// Classroom is owned by exactly one teacher for its whole life
type Classroom struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TeacherID   int64     `json:"teacher_id"`
	GradeLevel  string    `json:"grade_level"`
	Section     string    `json:"section"`
	SchoolYear  string    `json:"school_year"`
	MaxStudents int       `json:"max_students"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassroomSummary adds the live enrollment count and the teacher's name
type ClassroomSummary struct {
	Classroom
	TeacherName  string `json:"teacher_name"`
	StudentCount int    `json:"student_count"`
}

// IsFull reports whether no seat is left
func (c *ClassroomSummary) IsFull() bool {
	return c.StudentCount >= c.MaxStudents
}

// RosterEntry is a student actively enrolled in a classroom with activity totals
type RosterEntry struct {
	StudentID      int64      `json:"student_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	GamesPlayed    int        `json:"games_played"`
	AverageScore   *float64   `json:"average_score"`
	LastActivity   *time.Time `json:"last_activity"`
}
