package security

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortografia/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong horse", hash))
}

func TestTokenIssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	identity := models.Identity{ID: 42, Role: models.RoleTeacher, Name: "Profesora Ana"}

	token, expiresAt, err := svc.Issue(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestTokenVerifyRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _, err := svc.Issue(models.Identity{ID: 1, Role: models.RoleChild, Name: "Leo"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenService("other", time.Hour).Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[1] = parts[1] + "x"
		_, err := svc.Verify(strings.Join(parts, "."))
		assert.Error(t, err)
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other clients have their own bucket")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "bucket refills after the window")

	now = now.Add(5 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.visitors)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"}, "127.0.0.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "127.0.0.1:1234", "10.0.0.2"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}
