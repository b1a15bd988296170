// Package pending holds training rows whose minutes field is still missing
// and must be reconciled against the write collaborator.
package pending

import (
	"fmt"

	"github.com/mzawada/trainload/internal/platform/normalize"
)

const (
	fieldTimestamp    = 0
	fieldName         = 1
	fieldTrainingDate = 2
	fieldRPE          = 3
	fieldMinutes      = 4
	fieldTeam         = 6

	MinFields = 7
)

// Status is the per-record workflow state. Success and error are
// display states, a timer reverts them to idle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSaving  Status = "saving"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record identifies one row awaiting a minutes value. The write
// collaborator locates the authoritative row by (name, training date,
// timestamp), never by row position: positions drift between fetch and
// write. Source and RowIndex are carried as hints only.
type Record struct {
	Source       string
	SourceLabel  string
	RowIndex     int
	AthleteName  string
	AthleteKey   string
	Team         string
	TrainingDate string
	Timestamp    string
	RPE          *float64
}

// ID is the stable handle clients use to address a record across fetches.
func (r Record) ID() string {
	return fmt.Sprintf("%s__%d__%s__%s__%s", r.Source, r.RowIndex, r.AthleteName, r.TrainingDate, r.Timestamp)
}

// FromRow builds a Record from a parsed source row. Returns false for rows
// below the minimum width, without a name, or whose minutes field is
// already filled: those need no reconciliation.
func FromRow(source, sourceLabel string, rowIndex int, fields []string) (Record, bool) {
	if len(fields) < MinFields {
		return Record{}, false
	}

	name := fields[fieldName]
	key := normalize.Name(name)
	if key == "" {
		return Record{}, false
	}

	if _, filled := normalize.OptionalNumber(fields[fieldMinutes]); filled {
		return Record{}, false
	}

	record := Record{
		Source:       source,
		SourceLabel:  sourceLabel,
		RowIndex:     rowIndex,
		AthleteName:  name,
		AthleteKey:   key,
		Team:         fields[fieldTeam],
		TrainingDate: fields[fieldTrainingDate],
		Timestamp:    fields[fieldTimestamp],
	}
	if rpe, ok := normalize.OptionalNumber(fields[fieldRPE]); ok {
		record.RPE = &rpe
	}
	return record, true
}
