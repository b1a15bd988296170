package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/mzawada/trainload/internal/usecase"
)

type pendingRecordDTO struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	SourceLabel  string   `json:"source_label"`
	RowIndex     int      `json:"row_index"`
	AthleteName  string   `json:"athlete_name"`
	AthleteKey   string   `json:"athlete_key"`
	Team         string   `json:"team"`
	TrainingDate string   `json:"training_date"`
	Timestamp    string   `json:"timestamp"`
	RPE          *float64 `json:"rpe,omitempty"`
	Status       string   `json:"status"`
	Message      string   `json:"message,omitempty"`
}

type savePendingMinutesRequest struct {
	ID      string  `json:"id" validate:"required"`
	Minutes float64 `json:"minutes" validate:"required,gt=0"`
}

type deletePendingRequest struct {
	ID      string `json:"id" validate:"required"`
	Confirm bool   `json:"confirm"`
}

func (h *Handler) ListPendingRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPendingRecords")
	defer span.End()

	views, err := h.reconcileService.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list pending records failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]pendingRecordDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, pendingRecordDTO{
			ID:           view.ID,
			Source:       view.Record.Source,
			SourceLabel:  view.Record.SourceLabel,
			RowIndex:     view.Record.RowIndex,
			AthleteName:  view.Record.AthleteName,
			AthleteKey:   view.Record.AthleteKey,
			Team:         view.Record.Team,
			TrainingDate: view.Record.TrainingDate,
			Timestamp:    view.Record.Timestamp,
			RPE:          view.Record.RPE,
			Status:       string(view.Status),
			Message:      view.Message,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) SavePendingMinutes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SavePendingMinutes")
	defer span.End()

	var req savePendingMinutesRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.reconcileService.SaveMinutes(ctx, req.ID, req.Minutes); err != nil {
		h.logger.WarnContext(ctx, "save pending minutes failed", "id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "saved", "id": req.ID})
}

func (h *Handler) DeletePendingRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeletePendingRecord")
	defer span.End()

	var req deletePendingRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.reconcileService.Delete(ctx, req.ID, req.Confirm); err != nil {
		h.logger.WarnContext(ctx, "delete pending record failed", "id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted", "id": req.ID})
}
