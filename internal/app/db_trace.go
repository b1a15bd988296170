package app

import "strings"

const maxTracedQueryLength = 512

// formatDBQueryForTrace flattens a query to a single line and caps its
// length; snapshot upserts carry whole sheet payloads as arguments and the
// statement text alone is enough for the span.
func formatDBQueryForTrace(query string) string {
	flattened := strings.Join(strings.Fields(query), " ")
	if len(flattened) <= maxTracedQueryLength {
		return flattened
	}
	return flattened[:maxTracedQueryLength] + "..."
}
