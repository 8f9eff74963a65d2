// Package policy decides which identity may perform which action.
//
// Callers resolve the ownership facts a decision needs (who owns the
// classroom, which teacher currently has the student, which parents are
// linked) into a Resource and ask Authorize. The decision itself never
// touches storage, so it can be tested on its own.
package policy

import (
	"errors"
	"fmt"
	"slices"

	"ortografia/internal/models"
)

// ErrForbidden is wrapped by every denial
var ErrForbidden = errors.New("forbidden")

// Action is something an identity asks to do
type Action int

const (
	CreateClassroom Action = iota + 1
	ManageClassroom
	ViewClassroomRoster
	ListAvailableClassrooms
	SelfEnroll
	EnrollStudent
	TransferStudent
	UnenrollStudent
	SearchStudent
	LinkParent
	ViewChildren
	CreateWord
	ManageWord
	ViewWords
	RecordSession
	ViewProgress
	ViewClassroomReport
	ViewTeacherDashboard
	ConfigureGame
)

var actionNames = map[Action]string{
	CreateClassroom:         "create classrooms",
	ManageClassroom:         "manage this classroom",
	ViewClassroomRoster:     "view this classroom's students",
	ListAvailableClassrooms: "list available classrooms",
	SelfEnroll:              "enroll themselves",
	EnrollStudent:           "enroll students in this classroom",
	TransferStudent:         "transfer students into this classroom",
	UnenrollStudent:         "unenroll this student",
	SearchStudent:           "search students",
	LinkParent:              "link parents to this student",
	ViewChildren:            "view linked children",
	CreateWord:              "create words",
	ManageWord:              "change this word",
	ViewWords:               "view the word list",
	RecordSession:           "record game sessions",
	ViewProgress:            "view this progress",
	ViewClassroomReport:     "view this classroom report",
	ViewTeacherDashboard:    "view the teacher dashboard",
	ConfigureGame:           "configure games",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Resource carries the ownership facts about the target of an action.
// Zero values mean "not applicable" or "none".
type Resource struct {
	// OwnerTeacherID owns the classroom or created the word
	OwnerTeacherID int64
	// SubjectID is the user the action is about
	SubjectID int64
	// SubjectTeacherID owns the subject's active classroom
	SubjectTeacherID int64
	// ParentIDs are the parents linked to the subject, or to any child
	// actively enrolled in the target classroom
	ParentIDs []int64
}

// DeniedError explains a refusal. It unwraps to ErrForbidden.
type DeniedError struct {
	Role   models.Role
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s accounts cannot %s", e.Role, e.Action)
}

func (e *DeniedError) Unwrap() error { return ErrForbidden }

// Authorize returns nil when actor may perform action on res
func Authorize(actor models.Identity, action Action, res Resource) error {
	var (
		allowed bool
		reason  string
	)

	switch actor.Role {
	case models.RoleTeacher:
		allowed, reason = teacherMay(actor.ID, action, res)
	case models.RoleParent:
		allowed, reason = parentMay(actor.ID, action, res)
	case models.RoleChild:
		allowed, reason = childMay(actor.ID, action, res)
	default:
		return &DeniedError{Role: actor.Role, Action: action, Reason: "unknown role"}
	}

	if allowed {
		return nil
	}
	return &DeniedError{Role: actor.Role, Action: action, Reason: reason}
}

// Screen rejects actions the actor's role can never perform, whatever the
// resource. Services call it before looking anything up so that a wrong role
// learns nothing about which records exist.
func Screen(actor models.Identity, action Action) error {
	best := Resource{
		OwnerTeacherID:   actor.ID,
		SubjectID:        actor.ID,
		SubjectTeacherID: actor.ID,
		ParentIDs:        []int64{actor.ID},
	}
	var err *DeniedError
	if errors.As(Authorize(actor, action, best), &err) {
		return &DeniedError{Role: actor.Role, Action: action}
	}
	return nil
}

func teacherMay(id int64, action Action, res Resource) (bool, string) {
	switch action {
	case CreateClassroom, SearchStudent, ViewWords, ViewTeacherDashboard, RecordSession, ConfigureGame:
		return true, ""
	case ManageClassroom, EnrollStudent, ViewClassroomRoster, ViewClassroomReport:
		return res.OwnerTeacherID == id, "this classroom belongs to another teacher"
	case TransferStudent:
		return res.OwnerTeacherID == id, "you can only transfer students into your own classrooms"
	case UnenrollStudent:
		return res.SubjectTeacherID == id, "you can only unenroll students from your own classrooms"
	case LinkParent:
		return res.SubjectTeacherID == id, "you can only link parents for students in your own classrooms"
	case CreateWord:
		// a classroom-scoped word needs the classroom's owner
		return res.OwnerTeacherID == 0 || res.OwnerTeacherID == id, "this classroom belongs to another teacher"
	case ManageWord:
		return res.OwnerTeacherID == id, "you can only change words you created"
	case ViewProgress:
		return res.SubjectID == id || (res.SubjectTeacherID != 0 && res.SubjectTeacherID == id),
			"this student is not in one of your classrooms"
	default:
		return false, ""
	}
}

func parentMay(id int64, action Action, res Resource) (bool, string) {
	switch action {
	case ViewChildren, RecordSession:
		return true, ""
	case ViewProgress:
		return res.SubjectID == id || slices.Contains(res.ParentIDs, id), "this child is not linked to your account"
	case ViewClassroomRoster:
		return slices.Contains(res.ParentIDs, id), "none of your children is enrolled in this classroom"
	default:
		return false, ""
	}
}

func childMay(id int64, action Action, res Resource) (bool, string) {
	switch action {
	case SelfEnroll, ListAvailableClassrooms, RecordSession:
		return true, ""
	case ViewProgress:
		return res.SubjectID == id, "you can only view your own progress"
	default:
		return false, ""
	}
}
