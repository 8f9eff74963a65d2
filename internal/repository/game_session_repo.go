package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// GameSessionRepository stores game sessions. Rows are never updated.
type GameSessionRepository struct {
	db database.DBTX
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db database.DBTX) *GameSessionRepository {
	return &GameSessionRepository{db: db}
}

// Create appends a session
func (r *GameSessionRepository) Create(ctx context.Context, s *models.GameSession) (*models.GameSession, error) {
	data := s.SessionData
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	created := *s
	created.SessionData = data
	created.CreatedAt = now()

	query := `
		INSERT INTO game_sessions (user_id, game_type, score, total_questions, correct_answers,
			incorrect_answers, time_spent, completed, session_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.UserID, s.GameType, s.Score, s.TotalQuestions, s.CorrectAnswers,
		s.IncorrectAnswers, s.TimeSpent, s.Completed, string(data), created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save game session: %w", err)
	}
	created.ID = id
	return &created, nil
}

// ListForUser returns a user's sessions, newest first
func (r *GameSessionRepository) ListForUser(ctx context.Context, userID int64) ([]models.GameSession, error) {
	return r.list(ctx, "WHERE gs.user_id = ? ORDER BY gs.created_at DESC, gs.id DESC", userID)
}

// ListAll returns every session for export
func (r *GameSessionRepository) ListAll(ctx context.Context) ([]models.GameSession, error) {
	return r.list(ctx, "ORDER BY gs.id")
}

func (r *GameSessionRepository) list(ctx context.Context, tail string, args ...any) ([]models.GameSession, error) {
	query := `
		SELECT gs.id, gs.user_id, u.name, gs.game_type, gs.score, gs.total_questions, gs.correct_answers,
			gs.incorrect_answers, gs.time_spent, gs.completed, gs.session_data, gs.created_at
		FROM game_sessions gs
		JOIN users u ON u.id = gs.user_id
	` + tail
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.GameSession{}
	for rows.Next() {
		var (
			s    models.GameSession
			data string
		)
		err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.GameType, &s.Score, &s.TotalQuestions,
			&s.CorrectAnswers, &s.IncorrectAnswers, &s.TimeSpent, &s.Completed, &data, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game session: %w", err)
		}
		if data == "" {
			data = "{}"
		}
		s.SessionData = json.RawMessage(data)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
