package service

import (
	"errors"
	"fmt"
	"time"

	"ortografia/internal/policy"
	"ortografia/internal/validation"
)

// Domain failure kinds. Every failure a service returns on purpose wraps one
// of these, so callers can use errors.Is to pick a response.
var (
	ErrForbidden       = policy.ErrForbidden
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrClassroomFull   = errors.New("classroom full")
	ErrNotEnrolled     = errors.New("not enrolled")
	ErrValidation      = errors.New("invalid input")
	ErrDuplicateWord   = errors.New("duplicate word")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Failure is a domain failure with a message meant for the end user
type Failure struct {
	Kind    error
	Message string
	// Details is optional structured context, such as field errors
	Details any
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Kind }

func fail(kind error, format string, args ...any) error {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// invalid turns validation output into a Failure carrying the field errors
func invalid(err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &Failure{Kind: ErrValidation, Message: fields.Error(), Details: fields}
	}
	var field validation.ValidationError
	if errors.As(err, &field) {
		return &Failure{Kind: ErrValidation, Message: field.Message, Details: validation.Errors{field}}
	}
	return &Failure{Kind: ErrValidation, Message: err.Error()}
}

// AlreadyEnrolledError names the enrollment that blocks a new one
type AlreadyEnrolledError struct {
	StudentName   string    `json:"student_name"`
	ClassroomID   int64     `json:"classroom_id"`
	ClassroomName string    `json:"classroom_name"`
	TeacherName   string    `json:"teacher_name"`
	Since         time.Time `json:"enrollment_date"`
	// Self is set when the student asked for the enrollment
	Self bool `json:"-"`
}

func (e *AlreadyEnrolledError) Error() string {
	if e.ClassroomName == "" {
		return "the student is already enrolled in another classroom. A student can only be in one classroom at a time."
	}
	if e.Self {
		return fmt.Sprintf("You are already enrolled in %q with %s. You can only be in one classroom at a time.",
			e.ClassroomName, e.TeacherName)
	}
	return fmt.Sprintf("%s is already enrolled in %q with %s. A student can only be in one classroom at a time.",
		e.StudentName, e.ClassroomName, e.TeacherName)
}

func (e *AlreadyEnrolledError) Unwrap() error { return ErrAlreadyEnrolled }
