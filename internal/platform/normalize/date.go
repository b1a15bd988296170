package normalize

import (
	"strings"
	"time"
)

// dateLayouts covers the formats observed in the exports: ISO dates,
// ISO/RFC3339 timestamps, and dotted or slashed day-first variants.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"2.1.2006",
	"02.01.2006 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
}

// Date parses a calendar date from a raw field, truncating any time part.
// Returns false instead of an error: an unparseable date marks the record
// as undated, it never aborts a batch.
func Date(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}
