package timebucket

import (
	"testing"
	"time"
)

func day(value string) time.Time {
	parsed, err := time.Parse(DayKeyLayout, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestCalendarWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"monday maps to itself", "2024-03-04", "2024-03-04"},
		{"wednesday maps back to monday", "2024-03-06", "2024-03-04"},
		{"sunday maps six days back", "2024-03-10", "2024-03-04"},
		{"saturday maps five days back", "2024-03-09", "2024-03-04"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalendarWeekStart(day(tc.in)); DayKey(got) != tc.want {
				t.Fatalf("got=%s want=%s", DayKey(got), tc.want)
			}
		})
	}
}

func TestMicrocycleWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"saturday maps to itself", "2024-03-09", "2024-03-09"},
		{"sunday maps one day back", "2024-03-10", "2024-03-09"},
		{"friday maps six days back", "2024-03-08", "2024-03-02"},
		{"monday maps two days back", "2024-03-04", "2024-03-02"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MicrocycleWeekStart(day(tc.in)); DayKey(got) != tc.want {
				t.Fatalf("got=%s want=%s", DayKey(got), tc.want)
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	if got := MonthStart(day("2024-02-29")); DayKey(got) != "2024-02-01" {
		t.Fatalf("got=%s want=2024-02-01", DayKey(got))
	}
}

func TestDays(t *testing.T) {
	got := Days(day("2024-03-01"), day("2024-03-03"))
	if len(got) != 3 {
		t.Fatalf("day count: got=%d want=3", len(got))
	}
	if DayKey(got[0]) != "2024-03-01" || DayKey(got[2]) != "2024-03-03" {
		t.Fatalf("unexpected endpoints: %s .. %s", DayKey(got[0]), DayKey(got[2]))
	}

	if got := Days(day("2024-03-03"), day("2024-03-01")); got != nil {
		t.Fatalf("inverted range should be empty, got %d entries", len(got))
	}

	if got := Days(day("2024-03-01"), day("2024-03-01")); len(got) != 1 {
		t.Fatalf("single-day range: got=%d want=1", len(got))
	}
}

func TestWeekLabel(t *testing.T) {
	if got := WeekLabel(day("2024-01-01")); got != "01 Jan – 07 Jan" {
		t.Fatalf("got=%q", got)
	}
}

func TestIsCalendarWeekBoundary(t *testing.T) {
	if !IsCalendarWeekBoundary(day("2024-03-04")) {
		t.Fatal("monday should be a boundary")
	}
	if IsCalendarWeekBoundary(day("2024-03-09")) {
		t.Fatal("saturday is not a calendar week boundary")
	}
}
