package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// RelationshipRepository handles parent-child links
type RelationshipRepository struct {
	db database.DBTX
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RelationshipRepository) WithTx(tx *database.Tx) *RelationshipRepository {
	return &RelationshipRepository{db: tx}
}

// ClearPrimary removes the primary flag from every link of the child
func (r *RelationshipRepository) ClearPrimary(ctx context.Context, childID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE parent_child_relationships SET is_primary = ? WHERE child_id = ?", false, childID)
	if err != nil {
		return fmt.Errorf("failed to clear primary flag: %w", err)
	}
	return nil
}

// Upsert inserts the link or replaces its details when it already exists
func (r *RelationshipRepository) Upsert(ctx context.Context, rel *models.ParentChildRelation) (*models.ParentChildRelation, error) {
	query := r.db.GetDialect().UpsertRelationshipQuery()
	if _, err := r.db.ExecContext(ctx, query, rel.ParentID, rel.ChildID, rel.RelationshipType, rel.IsPrimary, rel.Phone, now()); err != nil {
		return nil, wrapWrite(r.db, "save relationship", err)
	}
	return r.Get(ctx, rel.ParentID, rel.ChildID)
}

// Get returns the link between parent and child, or nil
func (r *RelationshipRepository) Get(ctx context.Context, parentID, childID int64) (*models.ParentChildRelation, error) {
	rel := &models.ParentChildRelation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, parent_id, child_id, relationship_type, is_primary, phone, created_at
		FROM parent_child_relationships WHERE parent_id = ? AND child_id = ?
	`, parentID, childID).Scan(&rel.ID, &rel.ParentID, &rel.ChildID, &rel.RelationshipType, &rel.IsPrimary, &rel.Phone, &rel.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// ListForChild returns every link of a child
func (r *RelationshipRepository) ListForChild(ctx context.Context, childID int64) ([]models.ParentChildRelation, error) {
	return r.list(ctx, `
		SELECT id, parent_id, child_id, relationship_type, is_primary, phone, created_at
		FROM parent_child_relationships WHERE child_id = ? ORDER BY id
	`, childID)
}

// ListAll returns every link for export
func (r *RelationshipRepository) ListAll(ctx context.Context) ([]models.ParentChildRelation, error) {
	return r.list(ctx, `
		SELECT id, parent_id, child_id, relationship_type, is_primary, phone, created_at
		FROM parent_child_relationships ORDER BY id
	`)
}

func (r *RelationshipRepository) list(ctx context.Context, query string, args ...any) ([]models.ParentChildRelation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	rels := []models.ParentChildRelation{}
	for rows.Next() {
		var rel models.ParentChildRelation
		if err := rows.Scan(&rel.ID, &rel.ParentID, &rel.ChildID, &rel.RelationshipType, &rel.IsPrimary, &rel.Phone, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// ParentIDsForChild returns the parents linked to a child
func (r *RelationshipRepository) ParentIDsForChild(ctx context.Context, childID int64) ([]int64, error) {
	return r.ids(ctx, "SELECT parent_id FROM parent_child_relationships WHERE child_id = ?", childID)
}

// ParentIDsForClassroom returns the parents linked to any child actively enrolled in the classroom
func (r *RelationshipRepository) ParentIDsForClassroom(ctx context.Context, classroomID int64) ([]int64, error) {
	return r.ids(ctx, `
		SELECT DISTINCT pcr.parent_id
		FROM parent_child_relationships pcr
		JOIN student_enrollments se ON se.student_id = pcr.child_id AND se.status = 'active'
		WHERE se.classroom_id = ?
	`, classroomID)
}

func (r *RelationshipRepository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parent ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan parent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ContactsForChild returns the active parents linked to a child, primary first
func (r *RelationshipRepository) ContactsForChild(ctx context.Context, childID int64) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, pcr.is_primary
		FROM parent_child_relationships pcr
		JOIN users u ON u.id = pcr.parent_id
		WHERE pcr.child_id = ? AND u.active = ?
		ORDER BY pcr.is_primary DESC, u.name
	`, childID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.UserID, &c.Name, &c.Email, &c.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ChildrenFor returns the parent's linked children with their current
// classroom and activity totals, ordered by child name
func (r *RelationshipRepository) ChildrenFor(ctx context.Context, parentID int64) ([]models.ChildOverview, error) {
	query := `
		SELECT u.id, u.name, u.email, pcr.relationship_type, pcr.is_primary,
			c.id, c.name, c.grade_level, c.section, t.name, t.email,
			(SELECT COUNT(*) FROM game_sessions gs WHERE gs.user_id = u.id),
			(SELECT AVG(gs.score) FROM game_sessions gs WHERE gs.user_id = u.id),
			(SELECT MAX(gs.created_at) FROM game_sessions gs WHERE gs.user_id = u.id)
		FROM parent_child_relationships pcr
		JOIN users u ON u.id = pcr.child_id
		LEFT JOIN student_enrollments se ON se.student_id = u.id AND se.status = 'active'
		LEFT JOIN classrooms c ON c.id = se.classroom_id
		LEFT JOIN users t ON t.id = c.teacher_id
		WHERE pcr.parent_id = ? AND u.role = ?
		ORDER BY u.name, u.id
	`
	rows, err := r.db.QueryContext(ctx, query, parentID, models.RoleChild)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := []models.ChildOverview{}
	for rows.Next() {
		var (
			child                                        models.ChildOverview
			classroomID                                  sql.NullInt64
			classroomName, grade, section, tName, tEmail sql.NullString
			avg                                          sql.NullFloat64
			last                                         database.NullTime
		)
		err := rows.Scan(
			&child.ID, &child.Name, &child.Email, &child.RelationshipType, &child.IsPrimary,
			&classroomID, &classroomName, &grade, &section, &tName, &tEmail,
			&child.TotalGamesPlayed, &avg, &last,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		child.ClassroomID = int64Ptr(classroomID)
		child.ClassroomName = stringPtr(classroomName)
		child.GradeLevel = stringPtr(grade)
		child.Section = stringPtr(section)
		child.TeacherName = stringPtr(tName)
		child.TeacherEmail = stringPtr(tEmail)
		child.AverageScore = float64Ptr(avg)
		child.LastActivity = last.Ptr()
		children = append(children, child)
	}
	return children, rows.Err()
}
