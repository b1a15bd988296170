package delimited

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "2024-01-05,Jan Kowalski,7",
			want: []string{"2024-01-05", "Jan Kowalski", "7"},
		},
		{
			name: "quoted field with embedded delimiter",
			line: `"Smith, J.",10,"20"`,
			want: []string{"Smith, J.", "10", "20"},
		},
		{
			name: "whitespace trimmed",
			line: "  a , b ,c  ",
			want: []string{"a", "b", "c"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c",
			want: []string{"a", "", "c"},
		},
		{
			name: "trailing delimiter yields empty field",
			line: "a,b,",
			want: []string{"a", "b", ""},
		},
		{
			name: "single field",
			line: "alone",
			want: []string{"alone"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseLine(tc.line)
			if len(got) != len(tc.want) {
				t.Fatalf("field count: got=%d want=%d (%v)", len(got), len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("field %d: got=%q want=%q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseLineFieldCountMatchesUnquotedDelimiters(t *testing.T) {
	// For balanced quotes the field count is unquoted delimiters + 1.
	line := `a,"b,c",d,"e","f,g,h"`
	got := ParseLine(line)
	if len(got) != 5 {
		t.Fatalf("field count: got=%d want=5 (%v)", len(got), got)
	}
}

func TestSplitRows(t *testing.T) {
	rows := SplitRows("Header\r\n2024-01-05,Jan\n\n2024-01-06,Anna\n")
	if len(rows) != 3 {
		t.Fatalf("row count: got=%d want=3 (%v)", len(rows), rows)
	}
	if rows[0] != "Header" {
		t.Fatalf("header must be preserved, got %q", rows[0])
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("<!DOCTYPE html><html><body>denied</body></html>") {
		t.Fatal("doctype marker should be detected")
	}
	if !LooksLikeHTML("  <HTML><head></head>") {
		t.Fatal("html tag should be detected case-insensitively")
	}
	if LooksLikeHTML("date,name,rpe\n2024-01-05,Jan,7") {
		t.Fatal("delimited text misclassified as HTML")
	}
	if LooksLikeHTML(strings.Repeat("x", 1000) + "<html") {
		t.Fatal("marker beyond the document head should not match")
	}
}
