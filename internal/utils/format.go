package utils

import (
	"strings"

	"vwallet/internal/money"
)

// FormatCurrency renders an amount in COP display format, e.g.
// "$ 50.000,00". Presentation only; never used in balance arithmetic.
func FormatCurrency(m money.Money) string {
	fixed := m.StringFixed()

	intPart := fixed
	fracPart := "00"
	if dot := strings.LastIndex(fixed, "."); dot >= 0 {
		intPart, fracPart = fixed[:dot], fixed[dot+1:]
	}

	var b strings.Builder
	b.WriteString("$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}
