// Package measurement holds anthropometric observations feeding the
// maturity estimator.
package measurement

import (
	"strings"
	"time"

	"github.com/mzawada/trainload/internal/platform/normalize"
)

const (
	fieldMeasurementDate = 0
	fieldName            = 1
	fieldHeight          = 2
	fieldWeight          = 3
	fieldSittingHeight   = 4
	fieldBirthDate       = 5
	fieldGender          = 6

	MinFields = 6
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Measurement is one anthropometric observation. Only one observation per
// athlete survives the merge, the one with the latest measurement date.
type Measurement struct {
	AthleteName     string
	AthleteKey      string
	Team            string
	Gender          Gender
	MeasurementDate time.Time
	BirthDate       time.Time
	Height          float64
	Weight          float64
	SittingHeight   float64
	Age             float64
}

// LegLength derives the estimator's leg-length input.
func (m Measurement) LegLength() float64 {
	return m.Height - m.SittingHeight
}

// FromRow builds a Measurement from a parsed source row. Rows with a zero
// height, weight or sitting height, or without a computable chronological
// age, are discarded. The gender column is optional and defaults to male,
// matching the historical single-squad exports.
func FromRow(fields []string) (Measurement, bool) {
	return FromRowAt(fields, time.Now())
}

// FromRowAt is FromRow with an injected clock. A row whose measurement
// date fails to parse is kept with a zero MeasurementDate and its age
// computed against now; the merge prefers any dated observation over it.
func FromRowAt(fields []string, now time.Time) (Measurement, bool) {
	if len(fields) < MinFields {
		return Measurement{}, false
	}

	name := fields[fieldName]
	key := normalize.Name(name)
	if key == "" {
		return Measurement{}, false
	}

	height := normalize.Number(fields[fieldHeight])
	weight := normalize.Number(fields[fieldWeight])
	sittingHeight := normalize.Number(fields[fieldSittingHeight])
	if height == 0 || weight == 0 || sittingHeight == 0 {
		return Measurement{}, false
	}

	birthDate, birthOK := normalize.Date(fields[fieldBirthDate])
	if !birthOK {
		return Measurement{}, false
	}

	measuredAt, measuredOK := normalize.Date(fields[fieldMeasurementDate])
	ageAt := measuredAt
	if !measuredOK {
		measuredAt = time.Time{}
		ageAt = now
	}

	age, ok := chronologicalAge(birthDate, ageAt)
	if !ok {
		return Measurement{}, false
	}

	gender := GenderMale
	if len(fields) > fieldGender && isFemale(fields[fieldGender]) {
		gender = GenderFemale
	}

	return Measurement{
		AthleteName:     name,
		AthleteKey:      key,
		Gender:          gender,
		MeasurementDate: measuredAt,
		BirthDate:       birthDate,
		Height:          height,
		Weight:          weight,
		SittingHeight:   sittingHeight,
		Age:             age,
	}, true
}

// chronologicalAge is the whole-month age in fractional years. Whole months
// keep the value stable across re-exports regardless of the export hour.
func chronologicalAge(birth, at time.Time) (float64, bool) {
	months := (at.Year()-birth.Year())*12 + int(at.Month()) - int(birth.Month())
	if at.Day() < birth.Day() {
		months--
	}
	if months <= 0 {
		return 0, false
	}
	return float64(months) / 12, true
}

func isFemale(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "f", "female", "k":
		return true
	}
	return false
}
