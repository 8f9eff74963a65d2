package models

import "time"

// DefaultRelationshipType is stored when a link is created without a type
const DefaultRelationshipType = "representative"

// ParentChildRelation links a parent account to a child account
type ParentChildRelation struct {
	ID               int64     `json:"id"`
	ParentID         int64     `json:"parent_id"`
	ChildID          int64     `json:"child_id"`
	RelationshipType string    `json:"relationship_type"`
	IsPrimary        bool      `json:"is_primary"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChildOverview is a linked child as shown to a parent
type ChildOverview struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	RelationshipType string     `json:"relationship_type"`
	IsPrimary        bool       `json:"is_primary"`
	ClassroomID      *int64     `json:"classroom_id"`
	ClassroomName    *string    `json:"classroom_name"`
	GradeLevel       *string    `json:"grade_level"`
	Section          *string    `json:"section"`
	TeacherName      *string    `json:"teacher_name"`
	TeacherEmail     *string    `json:"teacher_email"`
	TotalGamesPlayed int        `json:"total_games_played"`
	AverageScore     *float64   `json:"average_score"`
	LastActivity     *time.Time `json:"last_activity"`
}

// Contact is a parent who should hear about changes to a child
type Contact struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsPrimary bool   `json:"is_primary"`
}
