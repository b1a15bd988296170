package pending

import "testing"

func TestFromRowPicksOnlyMissingMinutes(t *testing.T) {
	fields := []string{"2024-01-05 10:30:00", "Jan Kowalski", "2024-01-04", "7", "", "", "TeamA"}

	got, ok := FromRow("Sessions", "First team", 12, fields)
	if !ok {
		t.Fatal("row with empty minutes should become pending")
	}
	if got.AthleteKey != "jan kowalski" || got.TrainingDate != "2024-01-04" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.RPE == nil || *got.RPE != 7 {
		t.Fatalf("rpe: got=%v", got.RPE)
	}

	fields[4] = "60"
	if _, ok := FromRow("Sessions", "First team", 12, fields); ok {
		t.Fatal("row with filled minutes must not be pending")
	}

	// An unreadable minutes value contributes no load, so it is still
	// something to reconcile.
	fields[4] = "abc"
	if _, ok := FromRow("Sessions", "First team", 12, fields); !ok {
		t.Fatal("row with unreadable minutes should become pending")
	}
}

func TestFromRowKeepsMissingRPENil(t *testing.T) {
	fields := []string{"ts", "Jan Kowalski", "2024-01-04", "", "", "", "TeamA"}
	got, ok := FromRow("Sessions", "", 3, fields)
	if !ok {
		t.Fatal("row should become pending")
	}
	if got.RPE != nil {
		t.Fatalf("missing rpe must stay nil, got=%v", *got.RPE)
	}
}

func TestRecordID(t *testing.T) {
	record := Record{
		Source:       "Sessions",
		RowIndex:     12,
		AthleteName:  "Jan Kowalski",
		TrainingDate: "2024-01-04",
		Timestamp:    "2024-01-05 10:30:00",
	}
	want := "Sessions__12__Jan Kowalski__2024-01-04__2024-01-05 10:30:00"
	if got := record.ID(); got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}
