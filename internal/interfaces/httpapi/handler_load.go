package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mzawada/trainload/internal/platform/timebucket"
	"github.com/mzawada/trainload/internal/usecase"
)

type dailyPointDTO struct {
	Date         string  `json:"date"`
	HasData      bool    `json:"has_data"`
	WeekBoundary bool    `json:"week_boundary"`
	Sessions     int     `json:"sessions"`
	RPESum       float64 `json:"rpe_sum"`
	MinutesSum   float64 `json:"minutes_sum"`
	LoadSum      float64 `json:"load_sum"`
	MeanRPE      float64 `json:"mean_rpe"`
	MeanLoad     float64 `json:"mean_load"`
}

type playerSummaryDTO struct {
	AthleteKey  string  `json:"athlete_key"`
	DisplayName string  `json:"display_name"`
	Team        string  `json:"team"`
	Sessions    int     `json:"sessions"`
	MinutesSum  float64 `json:"minutes_sum"`
	TotalLoad   float64 `json:"total_load"`
	MeanRPE     float64 `json:"mean_rpe"`
	MeanLoad    float64 `json:"mean_load"`
	LoadBand    string  `json:"load_band"`
	RPEBand     string  `json:"rpe_band"`
}

type periodSummaryDTO struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Sessions   int     `json:"sessions"`
	RPESum     float64 `json:"rpe_sum"`
	MinutesSum float64 `json:"minutes_sum"`
	LoadSum    float64 `json:"load_sum"`
	MeanRPE    float64 `json:"mean_rpe"`
	MeanLoad   float64 `json:"mean_load"`
}

type loadTotalsDTO struct {
	Sessions   int     `json:"sessions"`
	MinutesSum float64 `json:"minutes_sum"`
	LoadSum    float64 `json:"load_sum"`
	MeanRPE    float64 `json:"mean_rpe"`
}

type athleteOptionDTO struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Team        string `json:"team"`
}

type availablePeriodsDTO struct {
	Weeks  []string `json:"weeks"`
	Months []string `json:"months"`
}

type weekRPEPointDTO struct {
	Date        string  `json:"date"`
	HasData     bool    `json:"has_data"`
	MeanRPE     float64 `json:"mean_rpe"`
	TeamMeanRPE float64 `json:"team_mean_rpe"`
}

func loadFilterFromQuery(r *http.Request) usecase.LoadFilter {
	query := r.URL.Query()
	return usecase.LoadFilter{
		AthleteKeys: splitCSVParam(query.Get("players")),
		Team:        strings.TrimSpace(query.Get("team")),
		WeekKeys:    splitCSVParam(query.Get("weeks")),
		MonthKeys:   splitCSVParam(query.Get("months")),
	}
}

func splitCSVParam(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func (h *Handler) GetDailyLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDailyLoad")
	defer span.End()

	points, err := h.loadService.DailySeries(ctx, loadFilterFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "daily load failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]dailyPointDTO, 0, len(points))
	for _, point := range points {
		dtos = append(dtos, dailyPointDTO{
			Date:         point.Date,
			HasData:      point.HasData,
			WeekBoundary: point.WeekBoundary,
			Sessions:     point.Sessions,
			RPESum:       point.RPESum,
			MinutesSum:   point.MinutesSum,
			LoadSum:      point.LoadSum,
			MeanRPE:      point.MeanRPE,
			MeanLoad:     point.MeanLoad,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ListPlayerLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayerLoad")
	defer span.End()

	summaries, err := h.loadService.PlayerComparison(ctx, loadFilterFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "player comparison failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]playerSummaryDTO, 0, len(summaries))
	for _, item := range summaries {
		dtos = append(dtos, playerSummaryDTO{
			AthleteKey:  item.AthleteKey,
			DisplayName: item.DisplayName,
			Team:        item.Team,
			Sessions:    item.Sessions,
			MinutesSum:  item.MinutesSum,
			TotalLoad:   item.TotalLoad,
			MeanRPE:     item.MeanRPE,
			MeanLoad:    item.MeanLoad,
			LoadBand:    string(item.LoadBand),
			RPEBand:     string(item.RPEBand),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ListWeeklyLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWeeklyLoad")
	defer span.End()

	anchor := usecase.WeekAnchor(strings.TrimSpace(r.URL.Query().Get("anchor")))
	if anchor == "" {
		anchor = usecase.AnchorCalendar
	}

	summaries, err := h.loadService.WeeklySummary(ctx, loadFilterFromQuery(r), anchor)
	if err != nil {
		h.logger.WarnContext(ctx, "weekly summary failed", "anchor", string(anchor), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, periodSummariesToDTO(summaries))
}

func (h *Handler) ListMonthlyLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMonthlyLoad")
	defer span.End()

	summaries, err := h.loadService.MonthlySummary(ctx, loadFilterFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "monthly summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, periodSummariesToDTO(summaries))
}

func periodSummariesToDTO(summaries []usecase.PeriodSummary) []periodSummaryDTO {
	dtos := make([]periodSummaryDTO, 0, len(summaries))
	for _, item := range summaries {
		dtos = append(dtos, periodSummaryDTO{
			Key:        item.Key,
			Label:      item.Label,
			Sessions:   item.Sessions,
			RPESum:     item.RPESum,
			MinutesSum: item.MinutesSum,
			LoadSum:    item.LoadSum,
			MeanRPE:    item.MeanRPE,
			MeanLoad:   item.MeanLoad,
		})
	}
	return dtos
}

func (h *Handler) GetLoadTotals(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLoadTotals")
	defer span.End()

	totals, err := h.loadService.Totals(ctx, loadFilterFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "load totals failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, loadTotalsDTO{
		Sessions:   totals.Sessions,
		MinutesSum: totals.MinutesSum,
		LoadSum:    totals.LoadSum,
		MeanRPE:    totals.MeanRPE,
	})
}

func (h *Handler) ListAvailablePeriods(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAvailablePeriods")
	defer span.End()

	weeks, err := h.loadService.AvailableWeeks(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "available weeks failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	months, err := h.loadService.AvailableMonths(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "available months failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, availablePeriodsDTO{Weeks: weeks, Months: months})
}

func (h *Handler) ListAthletes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAthletes")
	defer span.End()

	options, err := h.loadService.Players(ctx, strings.TrimSpace(r.URL.Query().Get("team")))
	if err != nil {
		h.logger.WarnContext(ctx, "athlete options failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]athleteOptionDTO, 0, len(options))
	for _, option := range options {
		dtos = append(dtos, athleteOptionDTO{
			Key:         option.Key,
			DisplayName: option.DisplayName,
			Team:        option.Team,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) GetWeekRPEComparison(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekRPEComparison")
	defer span.End()

	rawWeek := strings.TrimSpace(r.URL.Query().Get("week"))
	if rawWeek == "" {
		writeError(ctx, w, fmt.Errorf("%w: week query parameter is required", usecase.ErrInvalidInput))
		return
	}
	weekStart, err := time.Parse(timebucket.DayKeyLayout, rawWeek)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: week must be formatted as YYYY-MM-DD: %v", usecase.ErrInvalidInput, err))
		return
	}

	points, err := h.loadService.WeekRPEComparison(ctx, loadFilterFromQuery(r), weekStart)
	if err != nil {
		h.logger.WarnContext(ctx, "week rpe comparison failed", "week", rawWeek, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]weekRPEPointDTO, 0, len(points))
	for _, point := range points {
		dtos = append(dtos, weekRPEPointDTO{
			Date:        point.Date,
			HasData:     point.HasData,
			MeanRPE:     point.MeanRPE,
			TeamMeanRPE: point.TeamMeanRPE,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}
