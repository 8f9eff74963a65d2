package service

import (
	"context"
	"strings"

	"ortografia/internal/database"
	"ortografia/internal/models"
	"ortografia/internal/policy"
	"ortografia/internal/repository"
	"ortografia/internal/validation"
)

// LinkInput is the body of a link parent request
type LinkInput struct {
	ParentID         int64  `json:"parent_id" validate:"required,gt=0"`
	RelationshipType string `json:"relationship_type" validate:"max=50"`
	IsPrimary        bool   `json:"is_primary"`
	Phone            string `json:"phone" validate:"max=30"`
}

// RelationshipService manages parent-child links
type RelationshipService struct {
	db            *database.DB
	users         *repository.UserRepository
	enrollments   *repository.EnrollmentRepository
	relationships *repository.RelationshipRepository
	notifier      *NotificationService
}

// NewRelationshipService creates a new relationship service. notifier may be nil.
func NewRelationshipService(db *database.DB, notifier *NotificationService) *RelationshipService {
	return &RelationshipService{
		db:            db,
		users:         repository.NewUserRepository(db),
		enrollments:   repository.NewEnrollmentRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		notifier:      notifier,
	}
}

// LinkParentChild links a parent to a child in one of the acting teacher's
// classrooms. A primary link clears the primary flag of the child's other
// links first. Linking an existing pair replaces its details.
func (s *RelationshipService) LinkParentChild(ctx context.Context, actor models.Identity, childID int64, in LinkInput) (*models.ParentChildRelation, error) {
	if err := policy.Screen(actor, policy.LinkParent); err != nil {
		return nil, err
	}

	in.RelationshipType = strings.TrimSpace(in.RelationshipType)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if in.RelationshipType == "" {
		in.RelationshipType = models.DefaultRelationshipType
	}

	current, err := s.enrollments.GetActiveForStudent(ctx, childID)
	if err != nil {
		return nil, err
	}
	res := policy.Resource{SubjectID: childID}
	if current != nil {
		res.SubjectTeacherID = current.TeacherID
	}
	if err := policy.Authorize(actor, policy.LinkParent, res); err != nil {
		return nil, err
	}

	parent, err := s.users.GetActiveUserByRole(ctx, in.ParentID, models.RoleParent)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fail(ErrValidation, "parent account not found")
	}

	var rel *models.ParentChildRelation
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		relationships := s.relationships.WithTx(tx)
		if in.IsPrimary {
			if err := relationships.ClearPrimary(ctx, childID); err != nil {
				return err
			}
		}
		var err error
		rel, err = relationships.Upsert(ctx, &models.ParentChildRelation{
			ParentID:         parent.ID,
			ChildID:          childID,
			RelationshipType: in.RelationshipType,
			IsPrimary:        in.IsPrimary,
			Phone:            in.Phone,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if in.IsPrimary {
		s.notifier.ParentLinked(ctx, parent, current.StudentName)
	}
	return rel, nil
}

// ChildrenFor lists the acting parent's children with their classroom and activity
func (s *RelationshipService) ChildrenFor(ctx context.Context, actor models.Identity) ([]models.ChildOverview, error) {
	if err := policy.Authorize(actor, policy.ViewChildren, policy.Resource{}); err != nil {
		return nil, err
	}
	children, err := s.relationships.ChildrenFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		children[i].AverageScore = roundScore(children[i].AverageScore)
	}
	return children, nil
}
