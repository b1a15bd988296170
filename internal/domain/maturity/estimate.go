// Package maturity implements the Mirwald peak-height-velocity estimator.
package maturity

import "github.com/mzawada/trainload/internal/domain/measurement"

type Phase string

const (
	PhasePre   Phase = "PRE-PHV"
	PhaseCirca Phase = "CIRCA-PHV"
	PhasePost  Phase = "POST-PHV"
)

// Result is the estimator output for one surviving measurement.
type Result struct {
	Offset        float64
	PHVAge        float64
	BiologicalAge float64
	Phase         Phase
}

// Estimate computes the maturity offset from anthropometric inputs using the
// sex-specific Mirwald regression, then derives PHV age, biological age and
// the phase classification. Pure function: same measurement, same result.
func Estimate(m measurement.Measurement) Result {
	legLength := m.LegLength()
	weightHeightRatio := m.Weight / m.Height * 100

	var offset float64
	if m.Gender == measurement.GenderFemale {
		offset = -9.376 +
			0.0001882*legLength*m.SittingHeight +
			0.0022*m.Age*legLength +
			0.005841*m.Age*m.SittingHeight -
			0.002658*m.Age*m.Weight +
			0.07693*weightHeightRatio
	} else {
		offset = -9.236 +
			0.0002708*legLength*m.SittingHeight -
			0.001663*m.Age*legLength +
			0.007216*m.Age*m.SittingHeight +
			0.02292*weightHeightRatio
	}

	return Result{
		Offset:        offset,
		PHVAge:        m.Age - offset,
		BiologicalAge: m.Age + offset,
		Phase:         Classify(offset),
	}
}

// Classify maps a maturity offset onto the three-phase scale. Both ±1.0
// boundaries belong to the circa phase.
func Classify(offset float64) Phase {
	switch {
	case offset < -1.0:
		return PhasePre
	case offset > 1.0:
		return PhasePost
	default:
		return PhaseCirca
	}
}
