package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level sentinel errors. Services translate these into their own
// error taxonomy; nothing above this package inspects driver errors.
var (
	ErrClientNotFound  = errors.New("client not found")
	ErrSessionNotFound = errors.New("payment session not found")
	ErrDuplicateKey    = errors.New("duplicate key")
)

const uniqueViolationCode = "23505"

// isUniqueViolation detects a postgres unique-constraint failure so the
// caller can surface a stable duplicate error instead of driver noise.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
