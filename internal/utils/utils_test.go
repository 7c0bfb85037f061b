package utils

import (
	"testing"

	"vwallet/internal/money"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"juan.perez@example.com", "j***z@example.com"},
		{"ana@example.com", "a***a@example.com"},
		{"ab@example.com", "a***@example.com"},
		{"x@example.com", "x***@example.com"},
		{"not-an-email", "not-an-email"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.email), tt.email)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"50000", "$ 50.000,00"},
		{"1234567.89", "$ 1.234.567,89"},
		{"999", "$ 999,00"},
		{"0", "$ 0,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(money.MustFromString(tt.amount)), tt.amount)
	}
}
