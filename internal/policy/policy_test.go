package policy

import (
	"errors"
	"fmt"
	"testing"

	"ortografia/internal/models"
)

var (
	teacher      = models.Identity{ID: 1, Role: models.RoleTeacher, Name: "Teacher"}
	otherTeacher = models.Identity{ID: 2, Role: models.RoleTeacher, Name: "Other"}
	parent       = models.Identity{ID: 3, Role: models.RoleParent, Name: "Parent"}
	child        = models.Identity{ID: 4, Role: models.RoleChild, Name: "Child"}
	otherChild   = models.Identity{ID: 5, Role: models.RoleChild, Name: "Other child"}
)

func TestAuthorize(t *testing.T) {
	ownClassroom := Resource{OwnerTeacherID: teacher.ID}
	childInOwnClass := Resource{SubjectID: child.ID, SubjectTeacherID: teacher.ID, ParentIDs: []int64{parent.ID}}

	tests := []struct {
		name    string
		actor   models.Identity
		action  Action
		res     Resource
		allowed bool
	}{
		{"teacher creates classroom", teacher, CreateClassroom, Resource{}, true},
		{"parent cannot create classroom", parent, CreateClassroom, Resource{}, false},
		{"child cannot create classroom", child, CreateClassroom, Resource{}, false},

		{"owner manages classroom", teacher, ManageClassroom, ownClassroom, true},
		{"other teacher cannot manage", otherTeacher, ManageClassroom, ownClassroom, false},

		{"child self enrolls", child, SelfEnroll, Resource{}, true},
		{"teacher cannot self enroll", teacher, SelfEnroll, Resource{}, false},
		{"parent cannot list available", parent, ListAvailableClassrooms, Resource{}, false},

		{"owner enrolls", teacher, EnrollStudent, ownClassroom, true},
		{"non owner enroll denied", otherTeacher, EnrollStudent, ownClassroom, false},
		{"child cannot enroll others", child, EnrollStudent, ownClassroom, false},

		{"transfer into own classroom", teacher, TransferStudent, ownClassroom, true},
		{"transfer into foreign classroom", otherTeacher, TransferStudent, ownClassroom, false},

		{"unenroll from own classroom", teacher, UnenrollStudent, childInOwnClass, true},
		{"unenroll from foreign classroom", otherTeacher, UnenrollStudent, childInOwnClass, false},
		{"unenroll unenrolled student", teacher, UnenrollStudent, Resource{SubjectID: child.ID}, false},

		{"link parent for own student", teacher, LinkParent, childInOwnClass, true},
		{"link parent for foreign student", otherTeacher, LinkParent, childInOwnClass, false},

		{"parent views children", parent, ViewChildren, Resource{}, true},
		{"teacher cannot view children list", teacher, ViewChildren, Resource{}, false},

		{"teacher creates private word", teacher, CreateWord, Resource{}, true},
		{"teacher creates word in own classroom", teacher, CreateWord, ownClassroom, true},
		{"teacher creates word in foreign classroom", otherTeacher, CreateWord, ownClassroom, false},
		{"child cannot create word", child, CreateWord, Resource{}, false},
		{"creator edits word", teacher, ManageWord, Resource{OwnerTeacherID: teacher.ID}, true},
		{"non creator edits word", otherTeacher, ManageWord, Resource{OwnerTeacherID: teacher.ID}, false},

		{"child records session", child, RecordSession, Resource{}, true},

		{"child views own progress", child, ViewProgress, childInOwnClass, true},
		{"child views other progress", otherChild, ViewProgress, childInOwnClass, false},
		{"linked parent views progress", parent, ViewProgress, childInOwnClass, true},
		{"unlinked parent views progress", parent, ViewProgress, Resource{SubjectID: child.ID}, false},
		{"classroom teacher views progress", teacher, ViewProgress, childInOwnClass, true},
		{"other teacher views progress", otherTeacher, ViewProgress, childInOwnClass, false},
		{"teacher views unenrolled child", teacher, ViewProgress, Resource{SubjectID: child.ID}, false},

		{"owner views report", teacher, ViewClassroomReport, ownClassroom, true},
		{"parent views report", parent, ViewClassroomReport, ownClassroom, false},

		{"parent with child views roster", parent, ViewClassroomRoster, Resource{OwnerTeacherID: teacher.ID, ParentIDs: []int64{parent.ID}}, true},
		{"parent without child views roster", parent, ViewClassroomRoster, ownClassroom, false},

		{"teacher dashboard", teacher, ViewTeacherDashboard, Resource{}, true},
		{"child dashboard", child, ViewTeacherDashboard, Resource{}, false},
		{"unknown role", models.Identity{ID: 9}, ViewWords, Resource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.res)
			if tt.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("expected denial")
				}
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("denial should wrap ErrForbidden, got %v", err)
				}
			}
		})
	}
}

func TestDeniedErrorMessage(t *testing.T) {
	err := Authorize(parent, CreateClassroom, Resource{})
	if err == nil || err.Error() != "parent accounts cannot create classrooms" {
		t.Errorf("unexpected message %v", err)
	}

	err = Authorize(otherTeacher, UnenrollStudent, Resource{SubjectTeacherID: teacher.ID})
	if err == nil || err.Error() != "you can only unenroll students from your own classrooms" {
		t.Errorf("unexpected message %v", err)
	}
}

func TestScreen(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Identity
		action  Action
		allowed bool
	}{
		{"teacher may try to enroll", teacher, EnrollStudent, true},
		{"parent never enrolls", parent, EnrollStudent, false},
		{"child never transfers", child, TransferStudent, false},
		{"parent may try to view a roster", parent, ViewClassroomRoster, true},
		{"child may view progress", child, ViewProgress, true},
		{"teacher never self enrolls", teacher, SelfEnroll, false},
		{"teacher configures games", teacher, ConfigureGame, true},
		{"child never configures games", child, ConfigureGame, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Screen(tt.actor, tt.action)
			if tt.allowed && err != nil {
				t.Fatalf("Screen() = %v, want nil", err)
			}
			if !tt.allowed {
				if !errors.Is(err, ErrForbidden) {
					t.Fatalf("Screen() = %v, want ErrForbidden", err)
				}
				if err.Error() != fmt.Sprintf("%s accounts cannot %s", tt.actor.Role, tt.action) {
					t.Errorf("unexpected message %q", err.Error())
				}
			}
		})
	}
}
