// Package timebucket maps calendar dates onto the reporting buckets used
// by the load views: Monday-anchored calendar weeks, Saturday-anchored
// microcycle weeks, and calendar months.
package timebucket

import "time"

const DayKeyLayout = "2006-01-02"

// CalendarWeekStart returns the Monday on or before the given date.
func CalendarWeekStart(date time.Time) time.Time {
	date = truncate(date)
	offset := int(date.Weekday()) - int(time.Monday)
	if offset < 0 {
		// Sunday rolls back to the previous Monday.
		offset = 6
	}
	return date.AddDate(0, 0, -offset)
}

// MicrocycleWeekStart returns the Saturday on or before the given date.
// Training microcycles start the day after match day, so the anchor is
// deliberately not the calendar week start.
func MicrocycleWeekStart(date time.Time) time.Time {
	date = truncate(date)
	offset := (int(date.Weekday()) + 1) % 7
	return date.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the date's month.
func MonthStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayKey renders the canonical per-day bucket key.
func DayKey(date time.Time) string {
	return date.Format(DayKeyLayout)
}

// WeekLabel renders a human-readable span for a week starting at start.
func WeekLabel(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	return start.Format("02 Jan") + " – " + end.Format("02 Jan")
}

// Days enumerates every calendar day in the closed interval [min, max].
func Days(min, max time.Time) []time.Time {
	min = truncate(min)
	max = truncate(max)
	if max.Before(min) {
		return nil
	}

	out := make([]time.Time, 0, int(max.Sub(min).Hours()/24)+1)
	for day := min; !day.After(max); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}

// IsCalendarWeekBoundary reports whether a date opens a calendar week.
// Renderers use it to draw week separators inside a filled range.
func IsCalendarWeekBoundary(date time.Time) bool {
	return date.Weekday() == time.Monday
}

func truncate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
