// Package money provides the fixed-point amount type used for all balance
// and transaction arithmetic. Balances are never represented as binary
// floating point anywhere in the system.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be represented as
// money: non-finite input, unparseable strings, or a negative value where
// only non-negative amounts are allowed.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is a non-negative fixed-point monetary amount with exact
// arithmetic. The zero value is usable and equals Zero().
type Money struct {
	d decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money { return Money{} }

// New wraps a decimal. It fails with ErrInvalidAmount for negative values.
func New(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d.String())
	}
	return Money{d: d}, nil
}

// FromString parses a decimal string such as "150000" or "99.95".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return New(d)
}

// FromFloat converts a float amount coming from the request boundary.
// Non-finite values are rejected before conversion.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, fmt.Errorf("%w: non-finite value", ErrInvalidAmount)
	}
	return New(decimal.NewFromFloat(f))
}

// MustFromString is a test helper; it panics on invalid input.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other, failing with ErrInvalidAmount when the result
// would be negative. Balances can never go below zero.
func (m Money) Sub(other Money) (Money, error) {
	r := m.d.Sub(other.d)
	if r.IsNegative() {
		return Money{}, fmt.Errorf("%w: subtraction below zero", ErrInvalidAmount)
	}
	return Money{d: r}, nil
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.d.LessThan(other.d)
}

// GreaterOrEqual reports m >= other.
func (m Money) GreaterOrEqual(other Money) bool {
	return m.d.GreaterThanOrEqual(other.d)
}

// Equal reports numeric equality.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// IsPositive reports m > 0.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// IsZero reports m == 0.
func (m Money) IsZero() bool { return m.d.IsZero() }

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the amount in a form that round-trips through FromString.
func (m Money) String() string { return m.d.String() }

// StringFixed renders the amount with exactly two decimal places.
func (m Money) StringFixed() string { return m.d.StringFixed(2) }

// MarshalJSON encodes the amount as a JSON string to avoid float rounding
// on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.String() + `"`), nil
}

// UnmarshalJSON accepts both string and numeric JSON representations.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	parsed, err := New(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer so Money maps to a NUMERIC column.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.d = d
	return nil
}
