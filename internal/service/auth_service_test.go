package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortografia/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(f.ctx, RegisterInput{Name: "Lucia", Email: " Lucia@Example.com ", Password: "supersecret", Role: "teacher"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "lucia@example.com", res.User.Email)
	assert.Equal(t, models.RoleTeacher, res.User.Role)

	_, err = f.auth.Register(f.ctx, RegisterInput{Name: "Other", Email: "lucia@example.com", Password: "supersecret", Role: "parent"})
	assert.ErrorIs(t, err, ErrValidation)

	tests := []struct {
		name      string
		input     RegisterInput
		wantField string
	}{
		{"short password", RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "short", Role: "child"}, "password"},
		{"bad email", RegisterInput{Name: "Ana", Email: "ana", Password: "supersecret", Role: "child"}, "email"},
		{"unknown role", RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "supersecret", Role: "admin"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(f.ctx, tt.input)
			require.ErrorIs(t, err, ErrValidation)
			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Contains(t, failure.Message, tt.wantField)
		})
	}

	byEmail, err := f.auth.Login(f.ctx, "LUCIA@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byEmail.User.ID)

	byName, err := f.auth.Login(f.ctx, "Lucia", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byName.User.ID)

	_, err = f.auth.Login(f.ctx, "lucia@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.auth.Login(f.ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.auth.Login(f.ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(f.ctx, RegisterInput{Name: "Pablo", Email: "pablo@example.com", Password: "supersecret", Role: "child"})
	require.NoError(t, err)

	user, err := f.auth.Authenticate(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Equal(t, models.RoleChild, user.Role)

	_, err = f.auth.Authenticate(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, f.users.SetActive(f.ctx, user.ID, false))
	_, err = f.auth.Authenticate(f.ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.auth.Login(f.ctx, "pablo@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
