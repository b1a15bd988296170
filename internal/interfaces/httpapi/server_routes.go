package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerLoadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/load/daily", handler.GetDailyLoad)
	mux.HandleFunc("GET /v1/load/players", handler.ListPlayerLoad)
	mux.HandleFunc("GET /v1/load/weeks", handler.ListWeeklyLoad)
	mux.HandleFunc("GET /v1/load/months", handler.ListMonthlyLoad)
	mux.HandleFunc("GET /v1/load/totals", handler.GetLoadTotals)
	mux.HandleFunc("GET /v1/load/periods", handler.ListAvailablePeriods)
	mux.HandleFunc("GET /v1/load/week-rpe", handler.GetWeekRPEComparison)
	mux.HandleFunc("GET /v1/load/athletes", handler.ListAthletes)
}

func registerMaturityRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/maturity/results", handler.ListMaturityResults)
	mux.HandleFunc("GET /v1/maturity/stats", handler.GetMaturityStats)
	mux.HandleFunc("GET /v1/maturity/report.csv", handler.DownloadMaturityReport)
}

func registerPendingRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/pending", handler.ListPendingRecords)
	mux.HandleFunc("POST /v1/pending/minutes", handler.SavePendingMinutes)
	mux.HandleFunc("POST /v1/pending/delete", handler.DeletePendingRecord)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/refresh", handler.RunRefresh)
}
