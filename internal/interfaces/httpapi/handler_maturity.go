package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mzawada/trainload/internal/domain/maturity"
	"github.com/mzawada/trainload/internal/domain/measurement"
	"github.com/mzawada/trainload/internal/usecase"
)

type maturityRowDTO struct {
	AthleteKey    string  `json:"athlete_key"`
	DisplayName   string  `json:"display_name"`
	Team          string  `json:"team"`
	Gender        string  `json:"gender"`
	MeasuredAt    string  `json:"measured_at"`
	Age           float64 `json:"age"`
	Height        float64 `json:"height_cm"`
	Weight        float64 `json:"weight_kg"`
	SittingHeight float64 `json:"sitting_height_cm"`
	LegLength     float64 `json:"leg_length_cm"`
	Offset        float64 `json:"maturity_offset"`
	PHVAge        float64 `json:"phv_age"`
	BiologicalAge float64 `json:"biological_age"`
	Phase         string  `json:"phase"`
}

type maturityStatsDTO struct {
	Count       int            `json:"count"`
	PhaseCounts map[string]int `json:"phase_counts"`
	MeanAge     float64        `json:"mean_age"`
	MeanOffset  float64        `json:"mean_offset"`
}

func maturityFilterFromQuery(r *http.Request) (usecase.MaturityFilter, error) {
	query := r.URL.Query()
	filter := usecase.MaturityFilter{
		Team: strings.TrimSpace(query.Get("team")),
	}

	switch gender := strings.ToLower(strings.TrimSpace(query.Get("gender"))); gender {
	case "":
	case string(measurement.GenderMale):
		filter.Gender = measurement.GenderMale
	case string(measurement.GenderFemale):
		filter.Gender = measurement.GenderFemale
	default:
		return usecase.MaturityFilter{}, fmt.Errorf("%w: unknown gender %q", usecase.ErrInvalidInput, gender)
	}

	switch phase := strings.ToLower(strings.TrimSpace(query.Get("phase"))); phase {
	case "":
	case "pre", strings.ToLower(string(maturity.PhasePre)):
		filter.Phase = maturity.PhasePre
	case "circa", strings.ToLower(string(maturity.PhaseCirca)):
		filter.Phase = maturity.PhaseCirca
	case "post", strings.ToLower(string(maturity.PhasePost)):
		filter.Phase = maturity.PhasePost
	default:
		return usecase.MaturityFilter{}, fmt.Errorf("%w: unknown phase %q", usecase.ErrInvalidInput, phase)
	}

	for param, target := range map[string]*float64{"min_age": &filter.MinAge, "max_age": &filter.MaxAge} {
		raw := strings.TrimSpace(query.Get(param))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return usecase.MaturityFilter{}, fmt.Errorf("%w: %s must be a non-negative number", usecase.ErrInvalidInput, param)
		}
		*target = value
	}

	return filter, nil
}

func (h *Handler) ListMaturityResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMaturityResults")
	defer span.End()

	filter, err := maturityFilterFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.maturityService.Results(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "maturity results failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]maturityRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, maturityRowDTO{
			AthleteKey:    row.AthleteKey,
			DisplayName:   row.DisplayName,
			Team:          row.Team,
			Gender:        string(row.Gender),
			MeasuredAt:    row.MeasuredAt,
			Age:           row.Age,
			Height:        row.Height,
			Weight:        row.Weight,
			SittingHeight: row.SittingHeight,
			LegLength:     row.LegLength,
			Offset:        row.Offset,
			PHVAge:        row.PHVAge,
			BiologicalAge: row.BiologicalAge,
			Phase:         string(row.Phase),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) GetMaturityStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMaturityStats")
	defer span.End()

	filter, err := maturityFilterFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.maturityService.Stats(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "maturity stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	phaseCounts := make(map[string]int, len(stats.PhaseCounts))
	for phase, count := range stats.PhaseCounts {
		phaseCounts[string(phase)] = count
	}

	writeSuccess(ctx, w, http.StatusOK, maturityStatsDTO{
		Count:       stats.Count,
		PhaseCounts: phaseCounts,
		MeanAge:     stats.MeanAge,
		MeanOffset:  stats.MeanOffset,
	})
}

func (h *Handler) DownloadMaturityReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DownloadMaturityReport")
	defer span.End()

	filter, err := maturityFilterFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	raw, err := h.maturityService.ReportCSV(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "maturity report failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="maturity-report.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
