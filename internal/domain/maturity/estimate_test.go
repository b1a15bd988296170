package maturity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mzawada/trainload/internal/domain/measurement"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		offset float64
		want   Phase
	}{
		{-1.0001, PhasePre},
		{-1.0, PhaseCirca},
		{0, PhaseCirca},
		{1.0, PhaseCirca},
		{1.0001, PhasePost},
	}

	for _, tc := range tests {
		if got := Classify(tc.offset); got != tc.want {
			t.Fatalf("Classify(%v): got=%s want=%s", tc.offset, got, tc.want)
		}
	}
}

func TestEstimateMale(t *testing.T) {
	got := Estimate(measurement.Measurement{
		Gender:        measurement.GenderMale,
		Age:           14,
		Height:        165,
		Weight:        50,
		SittingHeight: 85,
	})

	assert.InDelta(t, 0.0244655, got.Offset, 1e-6)
	assert.InDelta(t, 14-0.0244655, got.PHVAge, 1e-6)
	assert.InDelta(t, 14+0.0244655, got.BiologicalAge, 1e-6)
	assert.Equal(t, PhaseCirca, got.Phase)
}

func TestEstimateFemale(t *testing.T) {
	got := Estimate(measurement.Measurement{
		Gender:        measurement.GenderFemale,
		Age:           12,
		Height:        150,
		Weight:        40,
		SittingHeight: 78,
	})

	assert.InDelta(t, -0.1754663, got.Offset, 1e-6)
	assert.Equal(t, PhaseCirca, got.Phase)
}

func TestEstimateDeterministic(t *testing.T) {
	in := measurement.Measurement{
		Gender:        measurement.GenderMale,
		Age:           13.5,
		Height:        160,
		Weight:        48,
		SittingHeight: 82,
	}
	if Estimate(in) != Estimate(in) {
		t.Fatal("same inputs must produce the same result")
	}
}
