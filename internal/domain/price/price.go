// Package price converts the currency-formatted price text shown on menus
// into decimal amounts and back.
package price

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency symbol used when formatting amounts for screens.
const Symbol = "₹"

// ASCIISymbol replaces Symbol on devices limited to 7-bit text (thermal printers).
const ASCIISymbol = "Rs."

// Parse extracts a numeric amount from price text such as "₹1,250.50".
// Every character that is not a digit or '.' is dropped, then the longest
// leading "digits[.digits]" run is parsed, so "1.2.3" reads as 1.2.
// Unparseable input yields zero; Parse never fails.
func Parse(text string) decimal.Decimal {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(numericPrefix(b.String()))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericPrefix(s string) string {
	dot := false
	digits := 0
	for i := range len(s) {
		switch {
		case s[i] == '.' && !dot:
			dot = true
		case s[i] == '.':
			return trimDot(s[:i], digits)
		default:
			digits++
		}
	}
	return trimDot(s, digits)
}

func trimDot(s string, digits int) string {
	if digits == 0 {
		return ""
	}
	return strings.TrimSuffix(s, ".")
}

// Format renders an amount with the currency symbol and two decimals.
func Format(d decimal.Decimal) string {
	return Symbol + d.StringFixed(2)
}

// FormatASCII renders an amount for ESC/POS output.
func FormatASCII(d decimal.Decimal) string {
	return ASCIISymbol + d.StringFixed(2)
}
