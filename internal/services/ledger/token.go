package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// generateNumericToken returns a uniformly random fixed-length numeric
// code, zero-padded. Single-use by construction of the session lifecycle.
func generateNumericToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// expiryFrom computes the session expiry timestamp.
func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
