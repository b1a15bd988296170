package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mzawada/trainload/internal/domain/session"
	"github.com/mzawada/trainload/internal/platform/timebucket"
)

// WeekAnchor selects the weekday a weekly summary is grouped on.
type WeekAnchor string

const (
	AnchorCalendar   WeekAnchor = "calendar"
	AnchorMicrocycle WeekAnchor = "microcycle"
)

// LoadBand classifies a player's total load against the view mean.
type LoadBand string

const (
	LoadBandSevereHigh LoadBand = "severe-high"
	LoadBandHigh       LoadBand = "high"
	LoadBandNominal    LoadBand = "nominal"
	LoadBandLow        LoadBand = "low"
)

// RPEBand classifies a mean session intensity.
type RPEBand string

const (
	RPEBandMaximal   RPEBand = "maximal"
	RPEBandHeavy     RPEBand = "heavy"
	RPEBandModerate  RPEBand = "moderate"
	RPEBandLight     RPEBand = "light"
	RPEBandVeryLight RPEBand = "very-light"
)

// LoadFilter narrows the session set a view is computed over. Empty slices
// and strings mean "all". Selected weeks and months combine as a union: a
// session matches when it falls in any selected week or any selected month.
type LoadFilter struct {
	AthleteKeys []string
	Team        string
	WeekKeys    []string
	MonthKeys   []string
}

func (f LoadFilter) hasTimeFilter() bool {
	return len(f.WeekKeys) > 0 || len(f.MonthKeys) > 0
}

// DailyPoint is one calendar day inside a filled range. HasData tells
// renderers apart "no training" from "zero load training".
type DailyPoint struct {
	Date         string
	HasData      bool
	WeekBoundary bool
	Sessions     int
	RPESum       float64
	MinutesSum   float64
	LoadSum      float64
	MeanRPE      float64
	MeanLoad     float64
}

// PlayerSummary is one athlete's aggregate in the comparison view.
type PlayerSummary struct {
	AthleteKey  string
	DisplayName string
	Team        string
	Sessions    int
	MinutesSum  float64
	TotalLoad   float64
	MeanRPE     float64
	MeanLoad    float64
	LoadBand    LoadBand
	RPEBand     RPEBand
}

// PeriodSummary is one week or month bucket.
type PeriodSummary struct {
	Key        string
	Label      string
	Sessions   int
	RPESum     float64
	MinutesSum float64
	LoadSum    float64
	MeanRPE    float64
	MeanLoad   float64
}

// LoadTotals is the overall reduction of the filtered set.
type LoadTotals struct {
	Sessions   int
	MinutesSum float64
	LoadSum    float64
	MeanRPE    float64
}

// PlayerOption is one selectable athlete discovered from the session set.
type PlayerOption struct {
	Key         string
	DisplayName string
	Team        string
}

// WeekRPEPoint compares the filtered group's intensity against the whole
// team for one day of the microcycle window.
type WeekRPEPoint struct {
	Date        string
	HasData     bool
	MeanRPE     float64
	TeamMeanRPE float64
}

type LoadService struct {
	sessionRepo session.Repository
}

func NewLoadService(sessionRepo session.Repository) *LoadService {
	return &LoadService{sessionRepo: sessionRepo}
}

// DailySeries folds the filtered sessions into per-date aggregates and
// fills every calendar day between the first and last observation.
func (s *LoadService) DailySeries(ctx context.Context, filter LoadFilter) ([]DailyPoint, error) {
	ctx, span := startUsecaseSpan(ctx, "LoadService.DailySeries")
	defer span.End()

	sessions, err := s.filteredSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*aggregate, 64)
	var minDate, maxDate time.Time
	for _, item := range sessions {
		if !item.HasTrainingDate() {
			continue
		}
		key := timebucket.DayKey(item.TrainingDate)
		bucket, ok := byDay[key]
		if !ok {
			bucket = &aggregate{}
			byDay[key] = bucket
		}
		bucket.add(item)

		if minDate.IsZero() || item.TrainingDate.Before(minDate) {
			minDate = item.TrainingDate
		}
		if maxDate.IsZero() || item.TrainingDate.After(maxDate) {
			maxDate = item.TrainingDate
		}
	}

	if len(byDay) == 0 {
		return []DailyPoint{}, nil
	}

	days := timebucket.Days(minDate, maxDate)
	out := make([]DailyPoint, 0, len(days))
	for _, day := range days {
		point := DailyPoint{
			Date:         timebucket.DayKey(day),
			WeekBoundary: timebucket.IsCalendarWeekBoundary(day),
		}
		if bucket, ok := byDay[point.Date]; ok {
			point.HasData = true
			point.Sessions = bucket.sessions
			point.RPESum = bucket.rpeSum
			point.MinutesSum = bucket.minutesSum
			point.LoadSum = bucket.loadSum
			point.MeanRPE = bucket.meanRPE()
			point.MeanLoad = bucket.meanLoad()
		}
		out = append(out, point)
	}

	return out, nil
}

// PlayerComparison groups the filtered set per athlete and annotates each
// row with relative-load and RPE bands. Sorted by descending total load.
func (s *LoadService) PlayerComparison(ctx context.Context, filter LoadFilter) ([]PlayerSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "LoadService.PlayerComparison")
	defer span.End()

	sessions, err := s.filteredSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	type playerAggregate struct {
		aggregate
		displayName string
		team        string
	}

	byKey := make(map[string]*playerAggregate, 32)
	order := make([]string, 0, 32)
	for _, item := range sessions {
		if filter.hasTimeFilter() && !item.HasTrainingDate() {
			continue
		}
		bucket, ok := byKey[item.AthleteKey]
		if !ok {
			bucket = &playerAggregate{displayName: item.AthleteName, team: item.Team}
			byKey[item.AthleteKey] = bucket
			order = append(order, item.AthleteKey)
		}
		bucket.add(item)
	}

	out := make([]PlayerSummary, 0, len(order))
	var loadTotal float64
	for _, key := range order {
		bucket := byKey[key]
		out = append(out, PlayerSummary{
			AthleteKey:  key,
			DisplayName: bucket.displayName,
			Team:        bucket.team,
			Sessions:    bucket.sessions,
			MinutesSum:  bucket.minutesSum,
			TotalLoad:   bucket.loadSum,
			MeanRPE:     bucket.meanRPE(),
			MeanLoad:    bucket.meanLoad(),
		})
		loadTotal += bucket.loadSum
	}

	var loadMean float64
	if len(out) > 0 {
		loadMean = loadTotal / float64(len(out))
	}
	for i := range out {
		out[i].LoadBand = classifyLoad(out[i].TotalLoad, loadMean)
		out[i].RPEBand = ClassifyRPE(out[i].MeanRPE)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalLoad != out[j].TotalLoad {
			return out[i].TotalLoad > out[j].TotalLoad
		}
		return out[i].AthleteKey < out[j].AthleteKey
	})

	return out, nil
}

// WeeklySummary buckets the filtered sessions by week. The anchor picks
// between calendar and microcycle weeks.
func (s *LoadService) WeeklySummary(ctx context.Context, filter LoadFilter, anchor WeekAnchor) ([]PeriodSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "LoadService.WeeklySummary")
	defer span.End()

	weekStart := timebucket.MicrocycleWeekStart
	if anchor == AnchorCalendar {
		weekStart = timebucket.CalendarWeekStart
	} else if anchor != "" && anchor != AnchorMicrocycle {
		return nil, fmt.Errorf("%w: unknown week anchor %q", ErrInvalidInput, anchor)
	}

	return s.periodSummary(ctx, filter, func(date time.Time) (string, string) {
		start := weekStart(date)
		return timebucket.DayKey(start), timebucket.WeekLabel(start)
	})
}

// MonthlySummary buckets the filtered sessions by calendar month.
func (s *LoadService) MonthlySummary(ctx context.Context, filter LoadFilter) ([]PeriodSummary, error) {
	return s.periodSummary(ctx, filter, func(date time.Time) (string, string) {
		start := timebucket.MonthStart(date)
		return timebucket.DayKey(start), start.Format("Jan 2006")
	})
}

// Totals reduces the whole filtered set to one row.
func (s *LoadService) Totals(ctx context.Context, filter LoadFilter) (LoadTotals, error) {
	sessions, err := s.filteredSessions(ctx, filter)
	if err != nil {
		return LoadTotals{}, err
	}

	var bucket aggregate
	for _, item := range sessions {
		if filter.hasTimeFilter() && !item.HasTrainingDate() {
			continue
		}
		bucket.add(item)
	}

	return LoadTotals{
		Sessions:   bucket.sessions,
		MinutesSum: bucket.minutesSum,
		LoadSum:    bucket.loadSum,
		MeanRPE:    bucket.meanRPE(),
	}, nil
}

// AvailableWeeks lists distinct calendar week keys, newest first. The
// week filter is keyed on Monday starts; the Saturday anchor only shapes
// the weekly summary view.
func (s *LoadService) AvailableWeeks(ctx context.Context) ([]string, error) {
	return s.distinctKeys(ctx, func(date time.Time) string {
		return timebucket.DayKey(timebucket.CalendarWeekStart(date))
	})
}

// AvailableMonths lists distinct month keys, newest first.
func (s *LoadService) AvailableMonths(ctx context.Context) ([]string, error) {
	return s.distinctKeys(ctx, func(date time.Time) string {
		return timebucket.DayKey(timebucket.MonthStart(date))
	})
}

// Players enumerates distinct athletes across the team-filtered session
// set. First-seen display name wins. Undated sessions still count here.
func (s *LoadService) Players(ctx context.Context, team string) ([]PlayerOption, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	seen := make(map[string]struct{}, 32)
	out := make([]PlayerOption, 0, 32)
	for _, item := range sessions {
		if team != "" && item.Team != team {
			continue
		}
		if _, ok := seen[item.AthleteKey]; ok {
			continue
		}
		seen[item.AthleteKey] = struct{}{}
		out = append(out, PlayerOption{
			Key:         item.AthleteKey,
			DisplayName: item.AthleteName,
			Team:        item.Team,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

// WeekRPEComparison renders the nine-day intensity window around one
// calendar week: two lead-in days (Saturday, Sunday) plus the Monday
// week itself. Each day carries the filtered group's mean RPE next to
// the whole team's.
func (s *LoadService) WeekRPEComparison(ctx context.Context, filter LoadFilter, weekStart time.Time) ([]WeekRPEPoint, error) {
	ctx, span := startUsecaseSpan(ctx, "LoadService.WeekRPEComparison")
	defer span.End()

	if weekStart.IsZero() {
		return nil, fmt.Errorf("%w: week start is required", ErrInvalidInput)
	}

	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	start := timebucket.CalendarWeekStart(weekStart).AddDate(0, 0, -2)
	days := timebucket.Days(start, start.AddDate(0, 0, 8))

	groupByDay := make(map[string]*aggregate, len(days))
	teamByDay := make(map[string]*aggregate, len(days))
	for _, item := range sessions {
		if !item.HasTrainingDate() {
			continue
		}
		if filter.Team != "" && item.Team != filter.Team {
			continue
		}
		key := timebucket.DayKey(item.TrainingDate)

		bucket, ok := teamByDay[key]
		if !ok {
			bucket = &aggregate{}
			teamByDay[key] = bucket
		}
		bucket.add(item)

		if matchesAthletes(filter.AthleteKeys, item.AthleteKey) {
			bucket, ok := groupByDay[key]
			if !ok {
				bucket = &aggregate{}
				groupByDay[key] = bucket
			}
			bucket.add(item)
		}
	}

	out := make([]WeekRPEPoint, 0, len(days))
	for _, day := range days {
		point := WeekRPEPoint{Date: timebucket.DayKey(day)}
		if bucket, ok := groupByDay[point.Date]; ok {
			point.HasData = true
			point.MeanRPE = bucket.meanRPE()
		}
		if bucket, ok := teamByDay[point.Date]; ok {
			point.TeamMeanRPE = bucket.meanRPE()
		}
		out = append(out, point)
	}

	return out, nil
}

func (s *LoadService) periodSummary(ctx context.Context, filter LoadFilter, bucketOf func(time.Time) (string, string)) ([]PeriodSummary, error) {
	sessions, err := s.filteredSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	type labeled struct {
		aggregate
		label string
	}

	byKey := make(map[string]*labeled, 16)
	for _, item := range sessions {
		if !item.HasTrainingDate() {
			continue
		}
		key, label := bucketOf(item.TrainingDate)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &labeled{label: label}
			byKey[key] = bucket
		}
		bucket.add(item)
	}

	out := make([]PeriodSummary, 0, len(byKey))
	for key, bucket := range byKey {
		out = append(out, PeriodSummary{
			Key:        key,
			Label:      bucket.label,
			Sessions:   bucket.sessions,
			RPESum:     bucket.rpeSum,
			MinutesSum: bucket.minutesSum,
			LoadSum:    bucket.loadSum,
			MeanRPE:    bucket.meanRPE(),
			MeanLoad:   bucket.meanLoad(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *LoadService) distinctKeys(ctx context.Context, keyOf func(time.Time) string) ([]string, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	seen := make(map[string]struct{}, 16)
	out := make([]string, 0, 16)
	for _, item := range sessions {
		if !item.HasTrainingDate() {
			continue
		}
		key := keyOf(item.TrainingDate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

func (s *LoadService) filteredSessions(ctx context.Context, filter LoadFilter) ([]session.Session, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	weekSet := toSet(filter.WeekKeys)
	monthSet := toSet(filter.MonthKeys)

	out := make([]session.Session, 0, len(sessions))
	for _, item := range sessions {
		if !matchesAthletes(filter.AthleteKeys, item.AthleteKey) {
			continue
		}
		if filter.Team != "" && item.Team != filter.Team {
			continue
		}
		if len(weekSet) > 0 || len(monthSet) > 0 {
			if !item.HasTrainingDate() {
				continue
			}
			weekKey := timebucket.DayKey(timebucket.CalendarWeekStart(item.TrainingDate))
			monthKey := timebucket.DayKey(timebucket.MonthStart(item.TrainingDate))
			_, inWeek := weekSet[weekKey]
			_, inMonth := monthSet[monthKey]
			if !inWeek && !inMonth {
				continue
			}
		}
		out = append(out, item)
	}

	return out, nil
}

type aggregate struct {
	sessions   int
	rpeSum     float64
	minutesSum float64
	loadSum    float64
}

func (a *aggregate) add(item session.Session) {
	a.sessions++
	a.rpeSum += item.RPE
	a.minutesSum += item.Minutes
	a.loadSum += item.Load
}

func (a *aggregate) meanRPE() float64 {
	if a.sessions == 0 {
		return 0
	}
	return math.Round(a.rpeSum/float64(a.sessions)*10) / 10
}

func (a *aggregate) meanLoad() float64 {
	if a.sessions == 0 {
		return 0
	}
	return math.Round(a.loadSum / float64(a.sessions))
}

// classifyLoad bands a player's total load against the view mean. Exact
// boundary values fall into the higher band: exactly +20% is high.
func classifyLoad(total, mean float64) LoadBand {
	if mean == 0 {
		return LoadBandNominal
	}
	deviation := (total - mean) / mean * 100
	switch {
	case deviation > 20:
		return LoadBandSevereHigh
	case deviation > 5:
		return LoadBandHigh
	case deviation >= -5:
		return LoadBandNominal
	default:
		return LoadBandLow
	}
}

// ClassifyRPE bands a mean intensity, evaluated top-down with inclusive
// lower bounds.
func ClassifyRPE(rpe float64) RPEBand {
	switch {
	case rpe >= 9:
		return RPEBandMaximal
	case rpe >= 7:
		return RPEBandHeavy
	case rpe >= 5:
		return RPEBandModerate
	case rpe >= 3:
		return RPEBandLight
	default:
		return RPEBandVeryLight
	}
}

func matchesAthletes(keys []string, key string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, candidate := range keys {
		if strings.TrimSpace(candidate) == key {
			return true
		}
	}
	return false
}

func toSet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = struct{}{}
	}
	return out
}
