package models

import "time"

// WordSource tells a teacher why a word is visible to them
type WordSource string

const (
	SourceOwn       WordSource = "own"
	SourceGlobal    WordSource = "global"
	SourceClassroom WordSource = "classroom"
)

// Rank orders sources for display: own, then global, then classroom
func (s WordSource) Rank() int {
	switch s {
	case SourceOwn:
		return 0
	case SourceGlobal:
		return 1
	case SourceClassroom:
		return 2
	default:
		return 3
	}
}

// WordEntry is a word for the titanic game. Word is stored uppercase.
type WordEntry struct {
	ID          int64     `json:"id"`
	Word        string    `json:"word"`
	Hint        string    `json:"hint"`
	Category    string    `json:"category"`
	Difficulty  int       `json:"difficulty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   int64     `json:"created_by"`
	ClassroomID *int64    `json:"classroom_id"`
	IsGlobal    bool      `json:"is_global"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScopedWord is a WordEntry as listed for a teacher
type ScopedWord struct {
	WordEntry
	CreatorName string     `json:"creator_name"`
	SourceType  WordSource `json:"source_type"`
}

// WordFilter narrows the word administration list
type WordFilter struct {
	Category   string
	Difficulty int
	Active     *bool
	Search     string
}

// WordStats summarizes the word table
type WordStats struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Inactive     int            `json:"inactive"`
	ByDifficulty map[int]int    `json:"by_difficulty"`
	ByCategory   map[string]int `json:"by_category"`
}
