package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"regular password", "password123"},
		{"password with special chars", "p@ssw0rd!@#$%^&*()"},
		{"minimum length", strings.Repeat("a", MinLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestGetHash_Salted(t *testing.T) {
	h1, err := GetHash("password123")
	require.NoError(t, err)
	h2, err := GetHash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCompareHash_Mismatch(t *testing.T) {
	hash, err := GetHash("password123")
	require.NoError(t, err)

	err = CompareHash(hash, "wrong")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestCompareHash_InvalidHash(t *testing.T) {
	err := CompareHash("not-a-hash", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestGetHash_TooLong(t *testing.T) {
	_, err := GetHash(strings.Repeat("x", 73))
	assert.Error(t, err)
}
