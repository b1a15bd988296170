package session

import "testing"

func TestFromRow(t *testing.T) {
	fields := []string{"2024-01-05", "Jan Kowalski", "2024-01-04", "7", "60", "", "TeamA"}

	got, ok := FromRow(fields)
	if !ok {
		t.Fatal("row should parse")
	}
	if got.AthleteKey != "jan kowalski" {
		t.Fatalf("athlete key: got=%q", got.AthleteKey)
	}
	if got.RPE != 7 || got.Minutes != 60 || got.Load != 420 {
		t.Fatalf("rpe=%v minutes=%v load=%v", got.RPE, got.Minutes, got.Load)
	}
	if got.Team != "TeamA" {
		t.Fatalf("team: got=%q", got.Team)
	}
	if got.TrainingDate.Format("2006-01-02") != "2024-01-04" {
		t.Fatalf("training date: got=%v", got.TrainingDate)
	}
}

func TestFromRowSkipsShortAndNameless(t *testing.T) {
	if _, ok := FromRow([]string{"2024-01-05", "Jan", "2024-01-04", "7", "60", ""}); ok {
		t.Fatal("six-field row must be rejected")
	}
	if _, ok := FromRow([]string{"2024-01-05", "   ", "2024-01-04", "7", "60", "", "TeamA"}); ok {
		t.Fatal("nameless row must be rejected")
	}
}

func TestFromRowUnparseableDateKeepsSession(t *testing.T) {
	got, ok := FromRow([]string{"x", "Jan Kowalski", "not a date", "7", "60", "", "TeamA"})
	if !ok {
		t.Fatal("row should parse")
	}
	if got.HasTrainingDate() {
		t.Fatal("unparseable date must yield an undated session")
	}
}

func TestFromRowCoercesBadNumbers(t *testing.T) {
	got, ok := FromRow([]string{"x", "Jan Kowalski", "2024-01-04", "abc", "", "", "TeamA"})
	if !ok {
		t.Fatal("row should parse")
	}
	if got.RPE != 0 || got.Minutes != 0 || got.Load != 0 {
		t.Fatalf("bad numbers must coerce to zero, got rpe=%v minutes=%v load=%v", got.RPE, got.Minutes, got.Load)
	}
}
