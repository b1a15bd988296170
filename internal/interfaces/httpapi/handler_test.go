package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/mzawada/trainload/internal/domain/measurement"
	"github.com/mzawada/trainload/internal/domain/session"
	"github.com/mzawada/trainload/internal/infrastructure/repository/memory"
	"github.com/mzawada/trainload/internal/usecase"
)

type fixedFetcher struct {
	payloads map[string]string
}

func (f *fixedFetcher) FetchTable(_ context.Context, ref usecase.TableRef) (string, error) {
	key := ref.Sheet
	if key == "" {
		key = ref.GID
	}
	return f.payloads[key], nil
}

type fixedWriter struct {
	result usecase.WriteResult
}

func (w *fixedWriter) Submit(_ context.Context, _ usecase.WriteCommand) (usecase.WriteResult, error) {
	return w.result, nil
}

func newTestRouter(t *testing.T) http.Handler {
	return newTestRouterWithWriter(t, &fixedWriter{result: usecase.WriteResult{OK: true, Status: "success"}})
}

func newTestRouterWithWriter(t *testing.T, writer usecase.RowWriter) http.Handler {
	t.Helper()

	sessionRepo := memory.NewSessionRepository()
	err := sessionRepo.ReplaceAll(context.Background(), []session.Session{
		{
			AthleteName:  "Jan Kowalski",
			AthleteKey:   "jan kowalski",
			Team:         "U17",
			TrainingDate: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
			RPE:          7,
			Minutes:      60,
			Load:         420,
		},
	})
	if err != nil {
		t.Fatalf("seed sessions: %v", err)
	}

	measurementRepo := memory.NewMeasurementRepository()
	err = measurementRepo.ReplaceAll(context.Background(), []measurement.Measurement{
		{
			AthleteName:     "Jan Kowalski",
			AthleteKey:      "jan kowalski",
			Team:            "U17",
			Gender:          measurement.GenderMale,
			MeasurementDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			Age:             14,
			Height:          165,
			Weight:          50,
			SittingHeight:   85,
		},
	})
	if err != nil {
		t.Fatalf("seed measurements: %v", err)
	}

	rosterRepo := memory.NewRosterRepository()
	pendingRepo := memory.NewPendingRepository()

	fetcher := &fixedFetcher{payloads: map[string]string{
		"100":    "Header\n2024-01-05,Jan Kowalski,2024-01-04,7,60,,U17",
		"200":    "Header\n2024-06-01,Jan Kowalski,165,50,85,2010-06-01",
		"Roster": "Header\nJan Kowalski,U17",
		"SheetA": "Header\n2024-01-05 10:30:00,Jan Kowalski,2024-01-04,7,,,U17",
	}}

	ingestionService := usecase.NewIngestionService(fetcher, sessionRepo, measurementRepo, rosterRepo, nil, usecase.IngestionRefs{
		Sessions:     usecase.TableRef{GID: "100"},
		Measurements: usecase.TableRef{GID: "200"},
		Roster:       usecase.TableRef{Sheet: "Roster"},
	}, nil)

	reconcileService, err := usecase.NewReconcileService([]usecase.PendingSource{
		{Sheet: "SheetA", Label: "First team"},
	}, fetcher, writer, pendingRepo, time.Second, nil)
	if err != nil {
		t.Fatalf("new reconcile service: %v", err)
	}
	t.Cleanup(reconcileService.Close)

	handler := NewHandler(
		usecase.NewLoadService(sessionRepo),
		usecase.NewMaturityService(measurementRepo),
		reconcileService,
		ingestionService,
		nil,
	)
	return NewRouter(handler, nil, []string{"*"})
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()

	var envelope map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return envelope["data"]
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: %d", rec.Code)
	}
}

func TestRouter_DailyLoad(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/load/daily?team=U17", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("daily load status: %d body=%s", rec.Code, rec.Body.String())
	}

	points, ok := decodeData(t, rec).([]any)
	if !ok || len(points) != 1 {
		t.Fatalf("expected one daily point, got %v", decodeData(t, rec))
	}
	point := points[0].(map[string]any)
	if point["date"] != "2024-03-04" || point["load_sum"] != float64(420) {
		t.Fatalf("daily point: %v", point)
	}
	if point["week_boundary"] != true {
		t.Fatalf("monday must carry the week boundary flag: %v", point)
	}
}

func TestRouter_WeeklyLoadRejectsUnknownAnchor(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/load/weeks?anchor=fortnight", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown anchor status: %d", rec.Code)
	}
}

func TestRouter_MaturityResults(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/maturity/results?gender=male", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("maturity results status: %d body=%s", rec.Code, rec.Body.String())
	}

	rows, ok := decodeData(t, rec).([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected one maturity row, got %v", decodeData(t, rec))
	}
	row := rows[0].(map[string]any)
	if row["athlete_key"] != "jan kowalski" || row["phase"] == "" {
		t.Fatalf("maturity row: %v", row)
	}
}

func TestRouter_MaturityResultsRejectsUnknownGender(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/maturity/results?gender=unknown", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown gender status: %d", rec.Code)
	}
}

func TestRouter_MaturityReportCSV(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/maturity/report.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("report content type: %q", got)
	}
	if !strings.Contains(rec.Body.String(), "jan kowalski") {
		t.Fatalf("report body: %s", rec.Body.String())
	}
}

func TestRouter_PendingWorkflow(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/refresh?dataset=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pending list status: %d", rec.Code)
	}
	records, ok := decodeData(t, rec).([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected one pending record, got %v", decodeData(t, rec))
	}
	record := records[0].(map[string]any)
	id, _ := record["id"].(string)
	if id == "" || record["status"] != "idle" {
		t.Fatalf("pending record: %v", record)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/pending/minutes", `{"id":"`+id+`","minutes":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero minutes status: %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/pending/minutes", `{"id":"`+id+`","minutes":45}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save minutes status: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/pending", "")
	records, _ = decodeData(t, rec).([]any)
	if len(records) != 0 {
		t.Fatalf("saved record must leave the pending set: %v", records)
	}
}

func TestRouter_SaveMinutesRejectedByCollaborator(t *testing.T) {
	router := newTestRouterWithWriter(t, &fixedWriter{
		result: usecase.WriteResult{OK: false, Status: "error", Message: "row not found"},
	})

	rec := doRequest(t, router, http.MethodPost, "/v1/refresh?dataset=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status: %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/v1/pending", "")
	records, _ := decodeData(t, rec).([]any)
	id := records[0].(map[string]any)["id"].(string)

	rec = doRequest(t, router, http.MethodPost, "/v1/pending/minutes", `{"id":"`+id+`","minutes":45}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("rejected save status: %d body=%s", rec.Code, rec.Body.String())
	}
	var envelope map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	errorObj, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", envelope)
	}
	if errorObj["status"] != "ABORTED" {
		t.Fatalf("error status: %v", errorObj["status"])
	}
	if msg, _ := errorObj["message"].(string); !strings.Contains(msg, "row not found") {
		t.Fatalf("collaborator message must be surfaced: %v", errorObj["message"])
	}

	// The record stays pending, carrying the error state for the display.
	rec = doRequest(t, router, http.MethodGet, "/v1/pending", "")
	records, _ = decodeData(t, rec).([]any)
	if len(records) != 1 {
		t.Fatalf("rejected record must stay pending: %v", records)
	}
	record := records[0].(map[string]any)
	if record["status"] != "error" || record["message"] != "row not found" {
		t.Fatalf("pending record state: %v", record)
	}
}

func TestRouter_DeletePendingRequiresConfirm(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/refresh?dataset=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status: %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, "/v1/pending", "")
	records, _ := decodeData(t, rec).([]any)
	id := records[0].(map[string]any)["id"].(string)

	rec = doRequest(t, router, http.MethodPost, "/v1/pending/delete", `{"id":"`+id+`","confirm":false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed delete status: %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/pending/delete", `{"id":"`+id+`","confirm":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed delete status: %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RefreshUnknownDataset(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/v1/refresh?dataset=everything", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown dataset status: %d", rec.Code)
	}
}
