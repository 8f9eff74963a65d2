package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortografia/internal/importer"
	"ortografia/internal/models"
	"ortografia/internal/validation"
)

func wordInput(word string) WordInput {
	return WordInput{Word: word, Hint: "a hint", Category: "general", Difficulty: 1}
}

func TestCreateWordRejectsDuplicateInAnyCase(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)

	w, err := f.words.Create(f.ctx, teacher, wordInput("auto"))
	require.NoError(t, err)
	assert.Equal(t, "AUTO", w.Word)
	assert.True(t, w.IsActive)

	_, err = f.words.Create(f.ctx, teacher, wordInput("AUTO"))
	assert.ErrorIs(t, err, ErrDuplicateWord)

	// uniqueness is table-wide, not per teacher
	other := f.user("other", models.RoleTeacher)
	_, err = f.words.Create(f.ctx, other, wordInput(" Auto "))
	assert.ErrorIs(t, err, ErrDuplicateWord)
}

func TestCreateWordValidation(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	child := f.user("child", models.RoleChild)

	tests := []struct {
		name  string
		input WordInput
		field string
	}{
		{"too short", wordInput("no"), "word"},
		{"digits", wordInput("abc1"), "word"},
		{"spaces inside", wordInput("dos palabras"), "word"},
		{"difficulty too high", WordInput{Word: "casa", Hint: "h", Category: "c", Difficulty: 4}, "difficulty"},
		{"blank hint", WordInput{Word: "casa", Hint: "  ", Category: "c", Difficulty: 1}, "hint"},
		{"missing category", WordInput{Word: "casa", Hint: "h", Difficulty: 1}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.words.Create(f.ctx, teacher, tt.input)
			require.ErrorIs(t, err, ErrValidation)
			var failure *Failure
			require.ErrorAs(t, err, &failure)
			fields, ok := failure.Details.(validation.Errors)
			require.True(t, ok)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}

	t.Run("accented letters are accepted", func(t *testing.T) {
		w, err := f.words.Create(f.ctx, teacher, wordInput("pingüino"))
		require.NoError(t, err)
		assert.Equal(t, "PINGÜINO", w.Word)

		w, err = f.words.Create(f.ctx, teacher, wordInput("ñandú"))
		require.NoError(t, err)
		assert.Equal(t, "ÑANDÚ", w.Word)
	})

	t.Run("children cannot create words", func(t *testing.T) {
		_, err := f.words.Create(f.ctx, child, wordInput("perro"))
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestWordScoping(t *testing.T) {
	f := newFixture(t)
	t1 := f.user("t1", models.RoleTeacher)
	t2 := f.user("t2", models.RoleTeacher)
	room := f.classroom(t2, "Room", 40)

	_, err := f.words.Create(f.ctx, t1, WordInput{Word: "zorro", Hint: "h", Category: "c", Difficulty: 1, ClassroomID: &room.ID})
	assert.ErrorIs(t, err, ErrForbidden, "classroom words need the classroom owner")

	missing := int64(999)
	_, err = f.words.Create(f.ctx, t1, WordInput{Word: "zorro", Hint: "h", Category: "c", Difficulty: 1, ClassroomID: &missing})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.words.Create(f.ctx, t1, wordInput("zorro"))
	require.NoError(t, err)
	_, err = f.words.Create(f.ctx, t2, WordInput{Word: "abeja", Hint: "h", Category: "c", Difficulty: 1, IsGlobal: true})
	require.NoError(t, err)
	_, err = f.words.Create(f.ctx, t2, WordInput{Word: "ballena", Hint: "h", Category: "c", Difficulty: 1, ClassroomID: &room.ID})
	require.NoError(t, err)
	_, err = f.words.Create(f.ctx, t2, wordInput("privada"))
	require.NoError(t, err)

	words, err := f.words.Available(f.ctx, t1, &room.ID)
	require.NoError(t, err)
	got := map[string]models.WordSource{}
	order := []models.WordSource{}
	for _, w := range words {
		got[w.Word] = w.SourceType
		order = append(order, w.SourceType)
	}
	assert.Equal(t, map[string]models.WordSource{
		"ZORRO":   models.SourceOwn,
		"ABEJA":   models.SourceGlobal,
		"BALLENA": models.SourceClassroom,
	}, got)
	assert.Equal(t, []models.WordSource{models.SourceOwn, models.SourceGlobal, models.SourceClassroom}, order)

	words, err = f.words.Available(f.ctx, t1, nil)
	require.NoError(t, err)
	assert.Len(t, words, 2)
}

func TestWordCRUD(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner", models.RoleTeacher)
	other := f.user("other", models.RoleTeacher)

	w, err := f.words.Create(f.ctx, owner, wordInput("mesa"))
	require.NoError(t, err)
	_, err = f.words.Create(f.ctx, owner, wordInput("silla"))
	require.NoError(t, err)

	_, err = f.words.Update(f.ctx, other, w.ID, wordInput("mesita"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.words.Update(f.ctx, owner, w.ID, wordInput("silla"))
	assert.ErrorIs(t, err, ErrDuplicateWord)

	updated, err := f.words.Update(f.ctx, owner, w.ID, WordInput{Word: "mesita", Hint: "small table", Category: "hogar", Difficulty: 2})
	require.NoError(t, err)
	assert.Equal(t, "MESITA", updated.Word)
	assert.Equal(t, 2, updated.Difficulty)

	// updating with the same text is not a duplicate of itself
	_, err = f.words.Update(f.ctx, owner, w.ID, WordInput{Word: "mesita", Hint: "again", Category: "hogar", Difficulty: 2})
	require.NoError(t, err)

	active, err := f.words.ToggleActive(f.ctx, owner, w.ID)
	require.NoError(t, err)
	assert.False(t, active)

	game, err := f.words.ActiveForGame(f.ctx, 1)
	require.NoError(t, err)
	require.Len(t, game, 1)
	assert.Equal(t, "SILLA", game[0].Word)

	_, err = f.words.ActiveForGame(f.ctx, 7)
	assert.ErrorIs(t, err, ErrValidation)

	stats, err := f.words.Stats(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Inactive)

	require.NoError(t, f.words.Delete(f.ctx, owner, w.ID))
	err = f.words.Delete(f.ctx, owner, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.words.List(f.ctx, owner, models.WordFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestImportWords(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)

	rows := []importer.Row{
		{Line: 2, Word: "luna", Hint: "de noche", Category: "cielo", Difficulty: 1},
		{Line: 3, Word: "LUNA", Hint: "repetida", Category: "cielo", Difficulty: 1},
		{Line: 4, Word: "sol9", Hint: "mal", Category: "cielo", Difficulty: 1},
		{Line: 5, Word: "estrella", Hint: "brilla", Category: "cielo", Difficulty: 2},
	}
	results, err := f.words.Import(f.ctx, teacher, rows)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Created)
	assert.False(t, results[1].Created)
	assert.Contains(t, results[1].Error, "already exists")
	assert.False(t, results[2].Created)
	assert.NotEmpty(t, results[2].Error)
	assert.True(t, results[3].Created)
	assert.Equal(t, "ESTRELLA", results[3].Word)
}
