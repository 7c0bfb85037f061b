package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumericToken(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		for i := 0; i < 50; i++ {
			token, err := generateNumericToken(length)
			require.NoError(t, err)
			require.Len(t, token, length)
			for _, r := range token {
				assert.True(t, r >= '0' && r <= '9', "token %q contains non-digit", token)
			}
		}
	}
}

func TestGenerateNumericToken_InvalidLength(t *testing.T) {
	_, err := generateNumericToken(0)
	assert.Error(t, err)
	_, err = generateNumericToken(-1)
	assert.Error(t, err)
}

func TestGenerateNumericToken_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := generateNumericToken(6)
		require.NoError(t, err)
		seen[token] = true
	}
	// 20 draws from a million values colliding down to one would mean the
	// generator is broken.
	assert.Greater(t, len(seen), 1)
}

func TestExpiryFrom(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(15*time.Minute), expiryFrom(now, 15*time.Minute))
}
