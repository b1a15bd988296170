// Package roster holds the name→team lookup built from the squad sheet.
package roster

import "github.com/mzawada/trainload/internal/platform/normalize"

const (
	fieldName = 0
	fieldTeam = 1

	MinFields = 2
)

// Entry maps one normalized athlete key to a team label.
type Entry struct {
	Key         string
	DisplayName string
	Team        string
}

// FromRow builds an Entry from a parsed roster row.
func FromRow(fields []string) (Entry, bool) {
	if len(fields) < MinFields {
		return Entry{}, false
	}

	key := normalize.Name(fields[fieldName])
	if key == "" {
		return Entry{}, false
	}

	return Entry{
		Key:         key,
		DisplayName: fields[fieldName],
		Team:        fields[fieldTeam],
	}, true
}
