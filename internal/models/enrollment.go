package models

import (
	"fmt"
	"time"
)

// EnrollmentStatus is the lifecycle state of an enrollment row
type EnrollmentStatus string

const (
	EnrollmentActive      EnrollmentStatus = "active"
	EnrollmentInactive    EnrollmentStatus = "inactive"
	EnrollmentTransferred EnrollmentStatus = "transferred"
)

// Valid reports whether s is a known status
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentInactive, EnrollmentTransferred:
		return true
	default:
		return false
	}
}

// Scan implements sql.Scanner
func (s *EnrollmentStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into EnrollmentStatus", value)
	}
	status := EnrollmentStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown enrollment status %q", raw)
	}
	*s = status
	return nil
}

// Enrollment rows are never deleted; status changes keep the history
type Enrollment struct {
	ID             int64            `json:"id"`
	StudentID      int64            `json:"student_id"`
	ClassroomID    int64            `json:"classroom_id"`
	Status         EnrollmentStatus `json:"status"`
	EnrollmentDate time.Time        `json:"enrollment_date"`
	Notes          string           `json:"notes"`
}

// ActiveEnrollment is a student's current enrollment with the names needed
// to explain it to a user
type ActiveEnrollment struct {
	Enrollment
	StudentName   string `json:"student_name"`
	ClassroomName string `json:"classroom_name"`
	TeacherID     int64  `json:"teacher_id"`
	TeacherName   string `json:"teacher_name"`
}
