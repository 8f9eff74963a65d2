package models

import (
	"encoding/json"
	"time"
)

// Game types with a fixed slot in progress breakdowns
const (
	GameOrtografia = "ortografia"
	GameReglas     = "reglas"
	GameAhorcado   = "ahorcado"
	GameTitanic    = "titanic"
)

// GameTypes is the fixed order used by progress breakdowns
var GameTypes = []string{GameOrtografia, GameReglas, GameAhorcado, GameTitanic}

// IsGameType reports whether s is one of GameTypes
func IsGameType(s string) bool {
	for _, gt := range GameTypes {
		if gt == s {
			return true
		}
	}
	return false
}

// GameSession is one attempt at a game. Rows are append-only.
type GameSession struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	UserName         string          `json:"user_name,omitempty"`
	GameType         string          `json:"game_type"`
	Score            int             `json:"score"`
	TotalQuestions   int             `json:"total_questions"`
	CorrectAnswers   int             `json:"correct_answers"`
	IncorrectAnswers int             `json:"incorrect_answers"`
	TimeSpent        int             `json:"time_spent"`
	Completed        bool            `json:"completed"`
	SessionData      json.RawMessage `json:"session_data"`
	CreatedAt        time.Time       `json:"created_at"`
}

// GameTypeStats is the per-game breakdown of a user's sessions
type GameTypeStats struct {
	Sessions     int     `json:"sessions"`
	Completed    int     `json:"completed"`
	BestScore    int     `json:"best_score"`
	AverageScore float64 `json:"average_score"`
}

// UserProgress aggregates every session of one user
type UserProgress struct {
	TotalSessions  int                      `json:"total_sessions"`
	GamesCompleted int                      `json:"games_completed"`
	TotalScore     int                      `json:"total_score"`
	AverageScore   float64                  `json:"average_score"`
	ByGameType     map[string]GameTypeStats `json:"by_game_type"`
}

// StudentReport is one row of a classroom progress report
type StudentReport struct {
	StudentID         int64          `json:"student_id"`
	StudentName       string         `json:"student_name"`
	TotalSessions     int            `json:"total_sessions"`
	CompletedSessions int            `json:"completed_sessions"`
	AverageScore      *float64       `json:"average_score"`
	TotalTimeSpent    int            `json:"total_time_spent"`
	LastActivity      *time.Time     `json:"last_activity"`
	SessionsByGame    map[string]int `json:"sessions_by_game"`
}

// TeacherDashboard holds the headline counts for a teacher
type TeacherDashboard struct {
	TotalClassrooms int `json:"total_classrooms"`
	TotalStudents   int `json:"total_students"`
	RecentActivity  int `json:"recent_activity"`
	WordsCreated    int `json:"words_created"`
}

// GameConfig is a teacher-authored word set for a game
type GameConfig struct {
	ID              int64             `json:"id"`
	GameType        string            `json:"game_type"`
	DifficultyLevel int               `json:"difficulty_level"`
	Words           []string          `json:"words"`
	Hints           map[string]string `json:"hints"`
	CreatedBy       int64             `json:"created_by"`
	CreatorName     string            `json:"creator_name"`
	Active          bool              `json:"active"`
	CreatedAt       time.Time         `json:"created_at"`
}
