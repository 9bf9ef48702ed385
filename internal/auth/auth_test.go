package auth

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/resumectl/internal/apperr"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Issue("user1")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.Username)
	assert.Equal(t, "user1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIDsAreUnique(t *testing.T) {
	tokens := NewTokens("secret", 0)
	a, err := tokens.Issue("user1")
	require.NoError(t, err)
	b, err := tokens.Issue("user1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	good, err := tokens.Issue("user1")
	require.NoError(t, err)

	expired := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("user1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		with  *Tokens
	}{
		{"garbage", "not-a-token", tokens},
		{"wrong secret", good, NewTokens("other", time.Hour)},
		{"expired", old, tokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.with.Verify(tt.token)
			assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("Passw0rd!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, CheckPassword(hash, "Passw0rd!"))
	assert.False(t, CheckPassword(hash, "passw0rd!"))
}

func TestPasswordRules(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd!", true},
		{"Pa0!", false},
		{"Password1234567890!!x", false},
		{"password1!", false},
		{"PASSWORD1!", false},
		{"Password!", false},
		{"Password1", false},
	}
	for _, tt := range tests {
		err := validation.Validate(tt.password, PasswordRules...)
		if tt.ok {
			assert.NoError(t, err, tt.password)
		} else {
			assert.Error(t, err, tt.password)
		}
	}
}

func TestUsernameRules(t *testing.T) {
	assert.NoError(t, validation.Validate("user1", UsernameRules...))
	assert.Error(t, validation.Validate("ab", UsernameRules...))
	assert.Error(t, validation.Validate("", UsernameRules...))
}
