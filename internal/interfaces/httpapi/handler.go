package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/usecase"
)

type Handler struct {
	loadService      *usecase.LoadService
	maturityService  *usecase.MaturityService
	reconcileService *usecase.ReconcileService
	ingestionService *usecase.IngestionService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	loadService *usecase.LoadService,
	maturityService *usecase.MaturityService,
	reconcileService *usecase.ReconcileService,
	ingestionService *usecase.IngestionService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		loadService:      loadService,
		maturityService:  maturityService,
		reconcileService: reconcileService,
		ingestionService: ingestionService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefresh")
	defer span.End()

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		dataset = "all"
	}

	var err error
	switch dataset {
	case "all":
		if err = h.ingestionService.RefreshAll(ctx); err == nil {
			err = h.reconcileService.Refresh(ctx)
		}
	case "sessions":
		err = h.ingestionService.RefreshSessions(ctx)
	case "measurements":
		err = h.ingestionService.RefreshMeasurements(ctx)
	case "roster":
		err = h.ingestionService.RefreshRoster(ctx)
	case "pending":
		err = h.reconcileService.Refresh(ctx)
	default:
		writeError(ctx, w, fmt.Errorf("%w: unknown dataset %q", usecase.ErrInvalidInput, dataset))
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "refresh failed", "dataset", dataset, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "refreshed", "dataset": dataset})
}
