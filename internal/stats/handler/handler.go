package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	docmodels "compliancehub/internal/document/models"
	ledgermodels "compliancehub/internal/ledger/models"
	"compliancehub/internal/stats/service"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// Service is the statistics port used by the handler.
type Service interface {
	GetComplianceStats(ctx context.Context, entityID *id.EntityID, now time.Time) (ledgermodels.Stats, error)
	DocumentStats(ctx context.Context, entityID *id.EntityID) (docmodels.Stats, error)
	EntityRollups(ctx context.Context, now time.Time) ([]service.EntityRollup, error)
	TopPerformingEntities(ctx context.Context, now time.Time, limit int) ([]service.EntityRollup, error)
	Dashboard(ctx context.Context, now time.Time, windowDays int) (*service.Dashboard, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/stats/compliance", h.HandleComplianceStats)
	r.Get("/stats/documents", h.HandleDocumentStats)
	r.Get("/stats/entities", h.HandleEntityRollups)
	r.Get("/stats/entities/top", h.HandleTopEntities)
	r.Get("/stats/dashboard", h.HandleDashboard)
}

type rollupsResponse struct {
	Entities []service.EntityRollup `json:"entities"`
}

func (h *Handler) HandleComplianceStats(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entityID, err := httputil.QueryEntityID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.service.GetComplianceStats(r.Context(), entityID, now)
	if err != nil {
		h.logFailure(r, "compliance stats failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) HandleDocumentStats(w http.ResponseWriter, r *http.Request) {
	entityID, err := httputil.QueryEntityID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.service.DocumentStats(r.Context(), entityID)
	if err != nil {
		h.logFailure(r, "document stats failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) HandleEntityRollups(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rollups, err := h.service.EntityRollups(r.Context(), now)
	if err != nil {
		h.logFailure(r, "entity rollups failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeRollups(w, rollups)
}

func (h *Handler) HandleTopEntities(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", service.DefaultTopLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rollups, err := h.service.TopPerformingEntities(r.Context(), now, limit)
	if err != nil {
		h.logFailure(r, "top entities failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeRollups(w, rollups)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	window, err := httputil.QueryInt(r, "window_days", ledgermodels.DefaultUpcomingWindowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Dashboard(r.Context(), now, window)
	if err != nil {
		h.logFailure(r, "dashboard failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func writeRollups(w http.ResponseWriter, rollups []service.EntityRollup) {
	if rollups == nil {
		rollups = []service.EntityRollup{}
	}
	httputil.WriteJSON(w, http.StatusOK, rollupsResponse{Entities: rollups})
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
}
