package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ortografia/internal/database"
	"ortografia/internal/models"
)

// WordRepository handles titanic word rows
type WordRepository struct {
	db database.DBTX
}

// NewWordRepository creates a new word repository
func NewWordRepository(db database.DBTX) *WordRepository {
	return &WordRepository{db: db}
}

const wordColumns = `w.id, w.word, w.hint, w.category, w.difficulty, w.is_active, w.created_by,
	w.classroom_id, w.is_global, w.created_at, w.updated_at`

func scanWord(row interface{ Scan(...any) error }, extra ...any) (*models.WordEntry, error) {
	w := &models.WordEntry{}
	var classroomID sql.NullInt64
	dest := []any{&w.ID, &w.Word, &w.Hint, &w.Category, &w.Difficulty, &w.IsActive, &w.CreatedBy,
		&classroomID, &w.IsGlobal, &w.CreatedAt, &w.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	w.ClassroomID = int64Ptr(classroomID)
	return w, nil
}

// Create inserts a word. A duplicate word text fails with ErrConflict.
func (r *WordRepository) Create(ctx context.Context, w *models.WordEntry) (*models.WordEntry, error) {
	ts := now()
	query := `
		INSERT INTO titanic_words (word, hint, category, difficulty, is_active, created_by, classroom_id, is_global, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		w.Word, w.Hint, w.Category, w.Difficulty, w.IsActive, w.CreatedBy,
		nullInt64(w.ClassroomID), w.IsGlobal, ts, ts,
	)
	if err != nil {
		return nil, wrapWrite(r.db, "create word", err)
	}
	created := *w
	created.ID = id
	created.CreatedAt = ts
	created.UpdatedAt = ts
	return &created, nil
}

// Update rewrites the editable fields of a word
func (r *WordRepository) Update(ctx context.Context, w *models.WordEntry) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE titanic_words
		SET word = ?, hint = ?, category = ?, difficulty = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, w.Word, w.Hint, w.Category, w.Difficulty, w.IsActive, now(), w.ID)
	if err != nil {
		return wrapWrite(r.db, "update word", err)
	}
	return nil
}

// GetByID returns a word, or nil
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.WordEntry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+wordColumns+" FROM titanic_words w WHERE w.id = ?", id)
	w, err := scanWord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return w, nil
}

// ExistsByWord reports whether the normalized word is already stored,
// ignoring the row with excludeID
func (r *WordRepository) ExistsByWord(ctx context.Context, word string, excludeID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM titanic_words WHERE word = ? AND id <> ?", word, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check word: %w", err)
	}
	return count > 0, nil
}

// Delete removes a word permanently
func (r *WordRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM titanic_words WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// SetActive flips the active flag of a word
func (r *WordRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE titanic_words SET is_active = ?, updated_at = ? WHERE id = ?", active, now(), id)
	if err != nil {
		return fmt.Errorf("failed to toggle word: %w", err)
	}
	return nil
}

// List returns words matching the filter with their creator name, newest first
func (r *WordRepository) List(ctx context.Context, f models.WordFilter) ([]models.ScopedWord, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "w.category = ?")
		args = append(args, f.Category)
	}
	if f.Difficulty != 0 {
		where = append(where, "w.difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if f.Active != nil {
		where = append(where, "w.is_active = ?")
		args = append(args, *f.Active)
	}
	if f.Search != "" {
		where = append(where, "(UPPER(w.word) LIKE ? OR UPPER(w.hint) LIKE ?)")
		pattern := "%" + strings.ToUpper(f.Search) + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + wordColumns + ", u.name FROM titanic_words w JOIN users u ON u.id = w.created_by"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY w.created_at DESC, w.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	words := []models.ScopedWord{}
	for rows.Next() {
		var creator string
		w, err := scanWord(rows, &creator)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, models.ScopedWord{WordEntry: *w, CreatorName: creator})
	}
	return words, rows.Err()
}

// Available returns the active words a teacher may use: their own, the
// global ones and, when classroomID is given, the ones shared with that
// classroom. Each row is tagged with the first matching source in that order.
func (r *WordRepository) Available(ctx context.Context, teacherID int64, classroomID *int64) ([]models.ScopedWord, error) {
	d := r.db.GetDialect()
	query := `
		SELECT ` + wordColumns + `, u.name,
			CASE
				WHEN w.created_by = ? THEN 'own'
				WHEN w.is_global = ` + d.BoolValue(true) + ` THEN 'global'
				ELSE 'classroom'
			END
		FROM titanic_words w
		JOIN users u ON u.id = w.created_by
		WHERE w.is_active = ` + d.BoolValue(true) + ` AND (w.created_by = ? OR w.is_global = ` + d.BoolValue(true)
	args := []any{teacherID, teacherID}
	if classroomID != nil {
		query += " OR w.classroom_id = ?"
		args = append(args, *classroomID)
	}
	query += ") ORDER BY w.word"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list available words: %w", err)
	}
	defer rows.Close()

	words := []models.ScopedWord{}
	for rows.Next() {
		var (
			creator string
			source  string
		)
		w, err := scanWord(rows, &creator, &source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, models.ScopedWord{WordEntry: *w, CreatorName: creator, SourceType: models.WordSource(source)})
	}
	return words, rows.Err()
}

// ActiveByDifficulty returns the active words of one difficulty in random order
func (r *WordRepository) ActiveByDifficulty(ctx context.Context, difficulty int) ([]models.WordEntry, error) {
	query := "SELECT " + wordColumns + " FROM titanic_words w WHERE w.difficulty = ? AND w.is_active = ? ORDER BY " +
		r.db.GetDialect().RandomFunc()
	return r.list(ctx, query, difficulty, true)
}

// ListAll returns every word for export
func (r *WordRepository) ListAll(ctx context.Context) ([]models.WordEntry, error) {
	return r.list(ctx, "SELECT "+wordColumns+" FROM titanic_words w ORDER BY w.id")
}

func (r *WordRepository) list(ctx context.Context, query string, args ...any) ([]models.WordEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	words := []models.WordEntry{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, *w)
	}
	return words, rows.Err()
}

// Stats counts words overall, by difficulty and by category
func (r *WordRepository) Stats(ctx context.Context) (*models.WordStats, error) {
	stats := &models.WordStats{
		ByDifficulty: map[int]int{},
		ByCategory:   map[string]int{},
	}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(CASE WHEN is_active = `+r.db.GetDialect().BoolValue(true)+` THEN 1 END)
		FROM titanic_words
	`).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to count words: %w", err)
	}
	stats.Inactive = stats.Total - stats.Active

	rows, err := r.db.QueryContext(ctx, "SELECT difficulty, COUNT(*) FROM titanic_words GROUP BY difficulty")
	if err != nil {
		return nil, fmt.Errorf("failed to count words by difficulty: %w", err)
	}
	for rows.Next() {
		var level, n int
		if err := rows.Scan(&level, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan difficulty count: %w", err)
		}
		stats.ByDifficulty[level] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM titanic_words GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to count words by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = n
	}
	return stats, rows.Err()
}
