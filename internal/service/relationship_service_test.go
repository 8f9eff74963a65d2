package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortografia/internal/models"
	"ortografia/internal/repository"
)

func TestLinkParentChildPrimaryIsExclusive(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	mom := f.user("mom", models.RoleParent)
	dad := f.user("dad", models.RoleParent)
	c := f.classroom(teacher, "Room", 40)
	kid := f.fill(teacher, c, "kid", 1)[0]

	rel, err := f.relationships.LinkParentChild(f.ctx, teacher, kid.ID, LinkInput{ParentID: mom.ID, IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRelationshipType, rel.RelationshipType)
	assert.True(t, rel.IsPrimary)

	_, err = f.relationships.LinkParentChild(f.ctx, teacher, kid.ID, LinkInput{ParentID: dad.ID, RelationshipType: "father", IsPrimary: true})
	require.NoError(t, err)

	links, err := repository.NewRelationshipRepository(f.db).ListForChild(f.ctx, kid.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	primaries := 0
	for _, l := range links {
		if l.IsPrimary {
			primaries++
			assert.Equal(t, dad.ID, l.ParentID)
		}
	}
	assert.Equal(t, 1, primaries)

	// relinking replaces the details of the pair
	rel, err = f.relationships.LinkParentChild(f.ctx, teacher, kid.ID, LinkInput{ParentID: mom.ID, RelationshipType: "mother", Phone: " 555-0101 "})
	require.NoError(t, err)
	assert.Equal(t, "mother", rel.RelationshipType)
	assert.Equal(t, "555-0101", rel.Phone)
	assert.False(t, rel.IsPrimary)

	links, err = repository.NewRelationshipRepository(f.db).ListForChild(f.ctx, kid.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestLinkParentChildErrors(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	stranger := f.user("stranger", models.RoleTeacher)
	mom := f.user("mom", models.RoleParent)
	c := f.classroom(teacher, "Room", 40)
	kid := f.fill(teacher, c, "kid", 1)[0]
	loose := f.user("loose", models.RoleChild)

	tests := []struct {
		name    string
		actor   models.Identity
		childID int64
		input   LinkInput
		want    error
	}{
		{"other teacher", stranger, kid.ID, LinkInput{ParentID: mom.ID}, ErrForbidden},
		{"unenrolled child", teacher, loose.ID, LinkInput{ParentID: mom.ID}, ErrForbidden},
		{"parent acting", mom, kid.ID, LinkInput{ParentID: mom.ID}, ErrForbidden},
		{"missing parent id", teacher, kid.ID, LinkInput{}, ErrValidation},
		{"unknown parent", teacher, kid.ID, LinkInput{ParentID: 999}, ErrValidation},
		{"parent id is a child", teacher, kid.ID, LinkInput{ParentID: loose.ID}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.relationships.LinkParentChild(f.ctx, tt.actor, tt.childID, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChildrenFor(t *testing.T) {
	f := newFixture(t)
	teacher := f.user("teacher", models.RoleTeacher)
	mom := f.user("mom", models.RoleParent)
	c := f.classroom(teacher, "Blue Room", 40)
	kids := f.fill(teacher, c, "kid", 2)

	for _, k := range kids {
		_, err := f.relationships.LinkParentChild(f.ctx, teacher, k.ID, LinkInput{ParentID: mom.ID, RelationshipType: "mother"})
		require.NoError(t, err)
	}
	_, err := f.progress.RecordSession(f.ctx, kids[0], SessionInput{GameType: models.GameReglas, Score: 33})
	require.NoError(t, err)
	_, err = f.progress.RecordSession(f.ctx, kids[0], SessionInput{GameType: models.GameReglas, Score: 34})
	require.NoError(t, err)

	children, err := f.relationships.ChildrenFor(f.ctx, mom)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "kid00", children[0].Name)
	require.NotNil(t, children[0].ClassroomName)
	assert.Equal(t, "Blue Room", *children[0].ClassroomName)
	assert.Equal(t, 2, children[0].TotalGamesPlayed)
	require.NotNil(t, children[0].AverageScore)
	assert.Equal(t, 33.5, *children[0].AverageScore)
	assert.Nil(t, children[1].AverageScore)

	_, err = f.relationships.ChildrenFor(f.ctx, teacher)
	assert.ErrorIs(t, err, ErrForbidden)
}
