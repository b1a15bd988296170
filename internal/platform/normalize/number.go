package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Number parses a locale-tolerant numeric field. Internal whitespace is
// stripped and a decimal comma is accepted. Unparseable or non-finite
// values coerce to 0: the source data leaves load fields blank to mean
// "no entry" and downstream aggregation treats both the same way.
func Number(raw string) float64 {
	value, ok := OptionalNumber(raw)
	if !ok {
		return 0
	}
	return value
}

// OptionalNumber is the non-coercing variant for callers that must tell a
// missing value apart from an explicit zero.
func OptionalNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.Join(strings.Fields(raw), ""), ",", ".")
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
