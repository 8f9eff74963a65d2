package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// GameConfigRepository handles teacher-authored word sets for games
type GameConfigRepository struct {
	db database.DBTX
}

// NewGameConfigRepository creates a new game config repository
func NewGameConfigRepository(db database.DBTX) *GameConfigRepository {
	return &GameConfigRepository{db: db}
}

// Create stores a config with its words and hints encoded as JSON
func (r *GameConfigRepository) Create(ctx context.Context, cfg *models.GameConfig) (*models.GameConfig, error) {
	words := cfg.Words
	if words == nil {
		words = []string{}
	}
	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("failed to encode words: %w", err)
	}
	var hints sql.NullString
	if cfg.Hints != nil {
		b, err := json.Marshal(cfg.Hints)
		if err != nil {
			return nil, fmt.Errorf("failed to encode hints: %w", err)
		}
		hints = sql.NullString{String: string(b), Valid: true}
	}

	created := *cfg
	created.Words = words
	created.CreatedAt = now()
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO game_config (game_type, difficulty_level, words, hints, created_by, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, cfg.GameType, cfg.DifficultyLevel, string(wordsJSON), hints, cfg.CreatedBy, cfg.Active, created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create game config: %w", err)
	}
	created.ID = id
	return &created, nil
}

// ListActive returns the active configs of a game type by difficulty, newest first
func (r *GameConfigRepository) ListActive(ctx context.Context, gameType string) ([]models.GameConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gc.id, gc.game_type, gc.difficulty_level, gc.words, gc.hints, gc.created_by, u.name, gc.active, gc.created_at
		FROM game_config gc
		JOIN users u ON u.id = gc.created_by
		WHERE gc.game_type = ? AND gc.active = ?
		ORDER BY gc.difficulty_level, gc.created_at DESC, gc.id DESC
	`, gameType, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list game config: %w", err)
	}
	defer rows.Close()

	configs := []models.GameConfig{}
	for rows.Next() {
		var (
			cfg   models.GameConfig
			words string
			hints sql.NullString
		)
		err := rows.Scan(&cfg.ID, &cfg.GameType, &cfg.DifficultyLevel, &words, &hints,
			&cfg.CreatedBy, &cfg.CreatorName, &cfg.Active, &cfg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game config: %w", err)
		}
		if err := json.Unmarshal([]byte(words), &cfg.Words); err != nil {
			return nil, fmt.Errorf("failed to decode words of config %d: %w", cfg.ID, err)
		}
		cfg.Hints = map[string]string{}
		if hints.Valid && hints.String != "" {
			if err := json.Unmarshal([]byte(hints.String), &cfg.Hints); err != nil {
				return nil, fmt.Errorf("failed to decode hints of config %d: %w", cfg.ID, err)
			}
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
