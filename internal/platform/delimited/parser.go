// Package delimited splits spreadsheet-exported text into rows and fields.
// The exports this service consumes are comma separated with optional
// double-quoted fields that may themselves contain commas.
package delimited

import "strings"

const delimiter = ','

// ParseLine splits one line into trimmed fields. A double quote toggles the
// quoted state; delimiters inside a quoted span do not split, and quotes
// surrounding a finished field are stripped.
func ParseLine(line string) []string {
	fields := make([]string, 0, 8)
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delimiter && !inQuotes:
			fields = append(fields, finishField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, finishField(current.String()))

	return fields
}

func finishField(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

// SplitRows breaks a document into non-empty lines. The caller decides what
// to do with the header line; this function never drops it.
func SplitRows(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// LooksLikeHTML reports whether a payload is an HTML document rather than
// delimited text. Spreadsheet hosts answer permission errors with HTML
// pages and a 200 status, so this is part of the soft-failure contract.
func LooksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}
