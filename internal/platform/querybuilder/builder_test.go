package querybuilder

import (
	"testing"
)

func TestSelectToSQL(t *testing.T) {
	query, args, err := Select("source", "payload").
		From("source_snapshots").
		Where(Eq("source", "sessions")).
		OrderBy("fetched_at DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT source, payload FROM source_snapshots WHERE source = $1 ORDER BY fetched_at DESC LIMIT 10"
	if query != want {
		t.Fatalf("query mismatch:\n got=%s\nwant=%s", query, want)
	}
	if len(args) != 1 || args[0] != "sessions" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectRequiresTable(t *testing.T) {
	if _, _, err := Select("a").ToSQL(); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestInsertModelBuildsUpsert(t *testing.T) {
	type row struct {
		Source  string `db:"source"`
		Payload string `db:"payload"`
		Ignored string `db:"-"`
	}

	query, args, err := InsertModel("source_snapshots", row{Source: "sessions", Payload: "a,b"},
		"ON CONFLICT (source) DO UPDATE SET payload = EXCLUDED.payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "INSERT INTO source_snapshots (source, payload) VALUES ($1, $2) ON CONFLICT (source) DO UPDATE SET payload = EXCLUDED.payload"
	if query != want {
		t.Fatalf("query mismatch:\n got=%s\nwant=%s", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInCondition(t *testing.T) {
	query, args, err := Select("1").From("t").Where(In("source", []any{"a", "b"})).ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "SELECT 1 FROM t WHERE source IN ($1, $2)" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %v", args)
	}

	query, _, err = Select("1").From("t").Where(In("source", nil)).ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "SELECT 1 FROM t WHERE 1=0" {
		t.Fatalf("empty IN should short-circuit: %s", query)
	}
}

func TestExprRewritesPlaceholders(t *testing.T) {
	query, args, err := Select("1").From("t").
		Where(Expr("fetched_at >= ? AND fetched_at < ?", "2024-01-01", "2024-02-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "SELECT 1 FROM t WHERE fetched_at >= $1 AND fetched_at < $2" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %v", args)
	}
}
