package jwt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Grocery-Receipt-Tracker/domain"
)

func TestJWTService(t *testing.T) {
	service := NewJWTService("test-secret")

	t.Run("round trip", func(t *testing.T) {
		token, err := service.GenerateTokenUser("user-1", "dana@example.com")
		require.NoError(t, err)

		userID, email, err := service.GetUserIDByToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
		assert.Equal(t, "dana@example.com", email)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := service.GetUserIDByToken("not.a.token")
		assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewJWTService("other-secret")
		token, err := other.GenerateTokenUser("user-1", "dana@example.com")
		require.NoError(t, err)

		_, _, err = service.GetUserIDByToken(token)
		assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
	})
}
