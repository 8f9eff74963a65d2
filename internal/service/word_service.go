package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"ortografia/internal/database"
	"ortografia/internal/importer"
	"ortografia/internal/models"
	"ortografia/internal/policy"
	"ortografia/internal/repository"
	"ortografia/internal/validation"
)

// WordInput is the body of a create or update word request
type WordInput struct {
	Word        string `json:"word" validate:"required,min=3,spelling_word"`
	Hint        string `json:"hint" validate:"required,notblank,max=255"`
	Category    string `json:"category" validate:"required,notblank,max=50"`
	Difficulty  int    `json:"difficulty" validate:"required,min=1,max=3"`
	IsActive    *bool  `json:"is_active"`
	ClassroomID *int64 `json:"classroom_id"`
	IsGlobal    bool   `json:"is_global"`
}

func (in *WordInput) normalize() {
	in.Word = validation.NormalizeWord(in.Word)
	in.Hint = strings.TrimSpace(in.Hint)
	in.Category = strings.TrimSpace(in.Category)
}

// ImportResult is the outcome of one imported row
type ImportResult struct {
	Line    int    `json:"line"`
	Word    string `json:"word"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// WordService scopes titanic words to their owners
type WordService struct {
	words      *repository.WordRepository
	classrooms *ClassroomService
}

// NewWordService creates a new word service
func NewWordService(db *database.DB) *WordService {
	return &WordService{
		words:      repository.NewWordRepository(db),
		classrooms: NewClassroomService(db, models.DefaultMaxStudents),
	}
}

// Create adds a word owned by the acting teacher. Word text is unique across
// the whole table regardless of scope.
func (s *WordService) Create(ctx context.Context, actor models.Identity, in WordInput) (*models.WordEntry, error) {
	if err := policy.Screen(actor, policy.CreateWord); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}

	if in.ClassroomID != nil {
		owned, err := s.classrooms.IsOwnedBy(ctx, *in.ClassroomID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, fail(ErrForbidden, "classroom not found among your classrooms")
		}
	}

	exists, err := s.words.ExistsByWord(ctx, in.Word, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fail(ErrDuplicateWord, "the word %s already exists", in.Word)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	w, err := s.words.Create(ctx, &models.WordEntry{
		Word:        in.Word,
		Hint:        in.Hint,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		IsActive:    active,
		CreatedBy:   actor.ID,
		ClassroomID: in.ClassroomID,
		IsGlobal:    in.IsGlobal,
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, fail(ErrDuplicateWord, "the word %s already exists", in.Word)
	}
	return w, err
}

// owned loads a word the acting teacher created
func (s *WordService) owned(ctx context.Context, actor models.Identity, id int64) (*models.WordEntry, error) {
	if err := policy.Screen(actor, policy.ManageWord); err != nil {
		return nil, err
	}
	w, err := s.words.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fail(ErrNotFound, "word not found")
	}
	if err := policy.Authorize(actor, policy.ManageWord, policy.Resource{OwnerTeacherID: w.CreatedBy}); err != nil {
		return nil, err
	}
	return w, nil
}

// Update rewrites a word's text, hint, category, difficulty and active flag.
// Its scope stays as created.
func (s *WordService) Update(ctx context.Context, actor models.Identity, id int64, in WordInput) (*models.WordEntry, error) {
	w, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}

	exists, err := s.words.ExistsByWord(ctx, in.Word, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fail(ErrDuplicateWord, "another word with the text %s already exists", in.Word)
	}

	w.Word = in.Word
	w.Hint = in.Hint
	w.Category = in.Category
	w.Difficulty = in.Difficulty
	if in.IsActive != nil {
		w.IsActive = *in.IsActive
	}
	if err := s.words.Update(ctx, w); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fail(ErrDuplicateWord, "another word with the text %s already exists", in.Word)
		}
		return nil, err
	}
	return s.words.GetByID(ctx, id)
}

// Delete removes a word permanently
func (s *WordService) Delete(ctx context.Context, actor models.Identity, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.words.Delete(ctx, id)
}

// ToggleActive flips a word's active flag and returns the new value
func (s *WordService) ToggleActive(ctx context.Context, actor models.Identity, id int64) (bool, error) {
	w, err := s.owned(ctx, actor, id)
	if err != nil {
		return false, err
	}
	if err := s.words.SetActive(ctx, id, !w.IsActive); err != nil {
		return false, err
	}
	return !w.IsActive, nil
}

// List returns the words matching filter for the administration screen
func (s *WordService) List(ctx context.Context, actor models.Identity, filter models.WordFilter) ([]models.ScopedWord, error) {
	if err := policy.Authorize(actor, policy.ViewWords, policy.Resource{}); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.words.List(ctx, filter)
}

// Stats summarizes the word table
func (s *WordService) Stats(ctx context.Context, actor models.Identity) (*models.WordStats, error) {
	if err := policy.Authorize(actor, policy.ViewWords, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.words.Stats(ctx)
}

// Available returns the active words the acting teacher may put in a game:
// own words, global words and, with classroomID, words shared with that
// classroom. Own words come first, then global, then classroom.
func (s *WordService) Available(ctx context.Context, actor models.Identity, classroomID *int64) ([]models.ScopedWord, error) {
	if err := policy.Authorize(actor, policy.ViewWords, policy.Resource{}); err != nil {
		return nil, err
	}
	words, err := s.words.Available(ctx, actor.ID, classroomID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(words, func(a, b models.ScopedWord) int {
		return cmp.Compare(a.SourceType.Rank(), b.SourceType.Rank())
	})
	return words, nil
}

// ActiveForGame returns the active words of a difficulty in random order.
// It needs no identity.
func (s *WordService) ActiveForGame(ctx context.Context, difficulty int) ([]models.WordEntry, error) {
	if difficulty < 1 || difficulty > 3 {
		return nil, fail(ErrValidation, "difficulty must be 1, 2 or 3")
	}
	return s.words.ActiveByDifficulty(ctx, difficulty)
}

// Import creates one private word per row. Rows that fail validation or
// collide with an existing word are reported and skipped; storage errors
// stop the import.
func (s *WordService) Import(ctx context.Context, actor models.Identity, rows []importer.Row) ([]ImportResult, error) {
	if err := policy.Screen(actor, policy.CreateWord); err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(rows))
	for _, row := range rows {
		result := ImportResult{Line: row.Line, Word: validation.NormalizeWord(row.Word)}
		_, err := s.Create(ctx, actor, WordInput{
			Word:       row.Word,
			Hint:       row.Hint,
			Category:   row.Category,
			Difficulty: row.Difficulty,
		})
		var failure *Failure
		switch {
		case err == nil:
			result.Created = true
		case errors.As(err, &failure):
			result.Error = failure.Message
		default:
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
