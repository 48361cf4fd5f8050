// Package format renders appraisal values as the strings shown to users.
package format

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// Fixed returns val with exactly two decimals (e.g., "-49.04"). Halves round
// away from zero through mathutil.Round, the rounding used to compare values.
func Fixed(val float64) string {
	rounded := mathutil.Round(val)
	if rounded == 0 {
		// no "-0.00"
		rounded = 0
	}
	return fmt.Sprintf("%.2f", rounded)
}

// Percent returns a percentage already expressed in percent units with two
// decimals and a trailing percent sign (e.g., "12.50%").
func Percent(val float64) string {
	return Fixed(val) + "%"
}

// Rate converts a fractional rate (0.1) into a percentage string ("10.00%").
func Rate(rate float64) string {
	return Percent(rate * constants.PercentageMultiplier)
}

// Sentence upper-cases the first letter of msg so error text can be shown as a
// standalone message.
func Sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}
