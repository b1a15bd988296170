package normalize

import (
	"testing"
	"time"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and trims", "  Jan Kowalski ", "jan kowalski"},
		{"strips diacritics", "Michał Żółty", "michal zolty"},
		{"folds stroked l", "Łukasz Białas", "lukasz bialas"},
		{"collapses whitespace runs", "Anna\t  Nowak", "anna nowak"},
		{"already canonical", "jan kowalski", "jan kowalski"},
		{"empty", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Name(tc.in); got != tc.want {
				t.Fatalf("Name(%q): got=%q want=%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{"Jan Kowalski", "Michał Żółty", "  ANNA   nowak ", "élodie müller"}
	for _, in := range inputs {
		once := Name(in)
		if twice := Name(once); twice != once {
			t.Fatalf("Name not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"7", 7},
		{"7,5", 7.5},
		{"7.5", 7.5},
		{"1 250", 1250},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
	}

	for _, tc := range tests {
		if got := Number(tc.in); got != tc.want {
			t.Fatalf("Number(%q): got=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestOptionalNumberDistinguishesMissing(t *testing.T) {
	if _, ok := OptionalNumber(""); ok {
		t.Fatal("empty field must report missing")
	}
	if _, ok := OptionalNumber("n/a"); ok {
		t.Fatal("unparseable field must report missing")
	}
	got, ok := OptionalNumber("0")
	if !ok || got != 0 {
		t.Fatalf("explicit zero must parse: got=%v ok=%t", got, ok)
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-04", "2024-01-04", true},
		{"2024-01-04T10:30:00", "2024-01-04", true},
		{"04.01.2024", "2024-01-04", true},
		{"4.1.2024", "2024-01-04", true},
		{"04/01/2024", "2024-01-04", true},
		{"not a date", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := Date(tc.in)
		if ok != tc.ok {
			t.Fatalf("Date(%q): ok=%t want=%t", tc.in, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Fatalf("Date(%q): got=%s want=%s", tc.in, got.Format("2006-01-02"), tc.want)
		}
		if h, m, s := got.Clock(); h != 0 || m != 0 || s != 0 {
			t.Fatalf("Date(%q) must truncate time, got %v", tc.in, got)
		}
		if got.Location() != time.UTC {
			t.Fatalf("Date(%q) must be UTC", tc.in)
		}
	}
}
