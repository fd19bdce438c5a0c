// internal/users/password_test.go
package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, salt, err := hashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := verifyPassword("correct horse battery staple", salt, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		ok, err := verifyPassword("incorrect horse", salt, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password gets a fresh salt", func(t *testing.T) {
		hash2, salt2, err := hashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, salt, salt2)
		assert.NotEqual(t, hash, hash2)
	})

	t.Run("garbage salt surfaces an error", func(t *testing.T) {
		_, err := verifyPassword("anything", "not base64!!", hash)
		assert.Error(t, err)
	})
}
