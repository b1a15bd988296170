package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/mzawada/trainload/internal/domain/maturity"
	"github.com/mzawada/trainload/internal/domain/measurement"
)

// MaturityFilter narrows the result set. Zero values mean "no constraint".
type MaturityFilter struct {
	Phase  maturity.Phase
	Gender measurement.Gender
	Team   string
	MinAge float64
	MaxAge float64
}

// MaturityRow is one athlete's surviving measurement with its estimate.
type MaturityRow struct {
	AthleteKey    string
	DisplayName   string
	Team          string
	Gender        measurement.Gender
	MeasuredAt    string
	Age           float64
	Height        float64
	Weight        float64
	SittingHeight float64
	LegLength     float64
	Offset        float64
	PHVAge        float64
	BiologicalAge float64
	Phase         maturity.Phase
}

// MaturityStats summarizes one filtered result set.
type MaturityStats struct {
	Count       int
	PhaseCounts map[maturity.Phase]int
	MeanAge     float64
	MeanOffset  float64
}

type MaturityService struct {
	measurementRepo measurement.Repository
}

func NewMaturityService(measurementRepo measurement.Repository) *MaturityService {
	return &MaturityService{measurementRepo: measurementRepo}
}

// Results merges the measurement set down to one row per athlete (latest
// measurement date wins), runs the estimator, applies the filter and
// sorts by display name.
func (s *MaturityService) Results(ctx context.Context, filter MaturityFilter) ([]MaturityRow, error) {
	ctx, span := startUsecaseSpan(ctx, "MaturityService.Results")
	defer span.End()

	measurements, err := s.measurementRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	survivors := make(map[string]measurement.Measurement, len(measurements))
	for _, item := range measurements {
		current, ok := survivors[item.AthleteKey]
		if !ok || item.MeasurementDate.After(current.MeasurementDate) {
			survivors[item.AthleteKey] = item
		}
	}

	out := make([]MaturityRow, 0, len(survivors))
	for _, item := range survivors {
		estimate := maturity.Estimate(item)
		measuredAt := ""
		if !item.MeasurementDate.IsZero() {
			measuredAt = item.MeasurementDate.Format("2006-01-02")
		}
		row := MaturityRow{
			AthleteKey:    item.AthleteKey,
			DisplayName:   item.AthleteName,
			Team:          item.Team,
			Gender:        item.Gender,
			MeasuredAt:    measuredAt,
			Age:           item.Age,
			Height:        item.Height,
			Weight:        item.Weight,
			SittingHeight: item.SittingHeight,
			LegLength:     item.LegLength(),
			Offset:        estimate.Offset,
			PHVAge:        estimate.PHVAge,
			BiologicalAge: estimate.BiologicalAge,
			Phase:         estimate.Phase,
		}
		if !matchesMaturityFilter(filter, row) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].AthleteKey < out[j].AthleteKey
	})
	return out, nil
}

// Stats reduces a filtered result set to counts and means. Mean age is
// rounded to one decimal, mean offset to two.
func (s *MaturityService) Stats(ctx context.Context, filter MaturityFilter) (MaturityStats, error) {
	rows, err := s.Results(ctx, filter)
	if err != nil {
		return MaturityStats{}, err
	}

	stats := MaturityStats{
		Count: len(rows),
		PhaseCounts: map[maturity.Phase]int{
			maturity.PhasePre:   0,
			maturity.PhaseCirca: 0,
			maturity.PhasePost:  0,
		},
	}
	if len(rows) == 0 {
		return stats, nil
	}

	var ageSum, offsetSum float64
	for _, row := range rows {
		stats.PhaseCounts[row.Phase]++
		ageSum += row.Age
		offsetSum += row.Offset
	}
	stats.MeanAge = math.Round(ageSum/float64(len(rows))*10) / 10
	stats.MeanOffset = math.Round(offsetSum/float64(len(rows))*100) / 100
	return stats, nil
}

// ReportCSV renders the filtered result set as a downloadable report.
func (s *MaturityService) ReportCSV(ctx context.Context, filter MaturityFilter) ([]byte, error) {
	rows, err := s.Results(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{
		"name", "team", "gender", "measured_at", "age",
		"height_cm", "weight_kg", "sitting_height_cm", "leg_length_cm",
		"maturity_offset", "phv_age", "biological_age", "phase",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.DisplayName,
			row.Team,
			string(row.Gender),
			row.MeasuredAt,
			strconv.FormatFloat(row.Age, 'f', 2, 64),
			strconv.FormatFloat(row.Height, 'f', 1, 64),
			strconv.FormatFloat(row.Weight, 'f', 1, 64),
			strconv.FormatFloat(row.SittingHeight, 'f', 1, 64),
			strconv.FormatFloat(row.LegLength, 'f', 1, 64),
			strconv.FormatFloat(row.Offset, 'f', 2, 64),
			strconv.FormatFloat(row.PHVAge, 'f', 2, 64),
			strconv.FormatFloat(row.BiologicalAge, 'f', 2, 64),
			string(row.Phase),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write report row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}
	return buf.Bytes(), nil
}

func matchesMaturityFilter(filter MaturityFilter, row MaturityRow) bool {
	if filter.Phase != "" && row.Phase != filter.Phase {
		return false
	}
	if filter.Gender != "" && row.Gender != filter.Gender {
		return false
	}
	if filter.Team != "" && row.Team != filter.Team {
		return false
	}
	if filter.MinAge > 0 && row.Age < filter.MinAge {
		return false
	}
	if filter.MaxAge > 0 && row.Age > filter.MaxAge {
		return false
	}
	return true
}
