// Package cashflow converts the raw strings entered for each year into the
// numeric series the appraisal package consumes.
package cashflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// Series is one project's yearly cash flows; index 0 is the initial investment.
type Series []float64

// ParseValue converts one entry. Empty input is zero. Input that is not a
// finite decimal number is also zero, with ok set to false.
func ParseValue(raw string) (value float64, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, true
	}

	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || !mathutil.IsFinite(parsed) {
		return 0, false
	}
	return parsed, true
}

// ParseSeries converts a row of raw entries and returns a warning for each
// entry that was replaced by zero.
func ParseSeries(raw []string) (Series, []string) {
	series := make(Series, len(raw))
	var warnings []string
	for year, entry := range raw {
		value, ok := ParseValue(entry)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("year %d: %q is not a number, using 0", year, entry))
		}
		series[year] = value
	}
	return series, warnings
}

// Pad returns a copy of s with exactly years entries, truncating or filling
// with zeros as needed.
func (s Series) Pad(years int) Series {
	if years < 0 {
		years = 0
	}
	padded := make(Series, years)
	copy(padded, s)
	return padded
}

// Float64s returns the series as a plain slice.
func (s Series) Float64s() []float64 {
	return []float64(s)
}
