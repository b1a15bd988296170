package session

import (
	"time"

	"github.com/mzawada/trainload/internal/platform/normalize"
)

// Source row layout: the exported sheet carries a timestamp in column 0
// and auxiliary columns we ignore; only the positions below are read.
const (
	fieldName         = 1
	fieldTrainingDate = 2
	fieldRPE          = 3
	fieldMinutes      = 4
	fieldTeam         = 6

	// MinFields is the row width required before a line is accepted.
	MinFields = 7
)

// DefaultTeam labels sessions whose athlete has no roster entry.
const DefaultTeam = "unassigned"

// Session is one training entry. Sessions have no persistent identity:
// every successful ingestion pass replaces the whole set.
type Session struct {
	AthleteName  string
	AthleteKey   string
	Team         string
	TrainingDate time.Time
	RPE          float64
	Minutes      float64
	Load         float64
}

// HasTrainingDate reports whether the session can appear in date-bucketed
// views. Undated sessions still count toward roster discovery.
func (s Session) HasTrainingDate() bool {
	return !s.TrainingDate.IsZero()
}

// FromRow builds a Session from a parsed source row. Returns false for rows
// below the minimum width or without an athlete name; such rows are skipped,
// they never abort a batch. The team column may be empty, callers resolve it
// against the roster.
func FromRow(fields []string) (Session, bool) {
	if len(fields) < MinFields {
		return Session{}, false
	}

	name := fields[fieldName]
	key := normalize.Name(name)
	if key == "" {
		return Session{}, false
	}

	trainingDate, _ := normalize.Date(fields[fieldTrainingDate])
	rpe := normalize.Number(fields[fieldRPE])
	minutes := normalize.Number(fields[fieldMinutes])

	return Session{
		AthleteName:  name,
		AthleteKey:   key,
		Team:         fields[fieldTeam],
		TrainingDate: trainingDate,
		RPE:          rpe,
		Minutes:      minutes,
		Load:         rpe * minutes,
	}, true
}
