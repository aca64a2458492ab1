package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/ledger/models"
	"compliancehub/internal/ledger/service"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// Service is the ledger port used by the handler.
type Service interface {
	ScheduleCompliance(ctx context.Context, in service.ScheduleInput) (*models.ComplianceRecord, error)
	GetCompliance(ctx context.Context, recordID id.ComplianceID) (*models.ComplianceRecord, error)
	GetCompliancesByEntity(ctx context.Context, entityID id.EntityID) ([]*models.ComplianceRecord, error)
	GetUpcomingCompliances(ctx context.Context, now time.Time, windowDays int) ([]*models.ComplianceRecord, error)
	GetOverdueCompliances(ctx context.Context, now time.Time) ([]*models.ComplianceRecord, error)
	UpdateStatus(ctx context.Context, recordID id.ComplianceID, to models.Status, actor id.UserID, now time.Time) (*models.ComplianceRecord, error)
	Assign(ctx context.Context, recordID id.ComplianceID, assignee id.UserID, actor id.UserID, now time.Time) (*models.ComplianceRecord, error)
	SetWorkflowState(ctx context.Context, recordID id.ComplianceID, state string, actor id.UserID, now time.Time) (*models.ComplianceRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/compliances/upcoming", h.HandleUpcoming)
	r.Get("/compliances/overdue", h.HandleOverdue)
	r.Get("/compliances/{id}", h.HandleGet)
	r.Get("/entities/{id}/compliances", h.HandleListByEntity)
}

// RegisterMutations mounts endpoints that need an authenticated actor. The
// caller applies the auth middleware.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/compliances", h.HandleSchedule)
	r.Post("/compliances/{id}/status", h.HandleUpdateStatus)
	r.Post("/compliances/{id}/assign", h.HandleAssign)
	r.Post("/compliances/{id}/workflow-state", h.HandleSetWorkflowState)
}

type listResponse struct {
	Compliances []models.View `json:"compliances"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseComplianceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.GetCompliance(r.Context(), recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeRecord(w, r, http.StatusOK, rec)
}

func (h *Handler) HandleListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.GetCompliancesByEntity(r.Context(), entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Compliances: models.NewViews(list, now)})
}

func (h *Handler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	window, err := httputil.QueryInt(r, "window_days", models.DefaultUpcomingWindowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.GetUpcomingCompliances(r.Context(), now, window)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Compliances: models.NewViews(list, now)})
}

func (h *Handler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.GetOverdueCompliances(r.Context(), now)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Compliances: models.NewViews(list, now)})
}

func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ScheduleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.service.ScheduleCompliance(ctx, service.ScheduleInput{
		EntityID:   req.entityID,
		TypeID:     req.typeID,
		Period:     req.Period,
		DueDate:    req.dueDate,
		AssigneeID: req.assignee,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule compliance failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeRecord(w, r, http.StatusCreated, rec)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, recordID id.ComplianceID, actor id.UserID, now time.Time) (*models.ComplianceRecord, bool, error) {
		req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return nil, false, nil
		}
		rec, err := h.service.UpdateStatus(ctx, recordID, req.status, actor, now)
		return rec, true, err
	})
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, recordID id.ComplianceID, actor id.UserID, now time.Time) (*models.ComplianceRecord, bool, error) {
		req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return nil, false, nil
		}
		rec, err := h.service.Assign(ctx, recordID, req.assignee, actor, now)
		return rec, true, err
	})
}

func (h *Handler) HandleSetWorkflowState(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, recordID id.ComplianceID, actor id.UserID, now time.Time) (*models.ComplianceRecord, bool, error) {
		req, ok := httputil.DecodeAndPrepare[WorkflowStateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return nil, false, nil
		}
		rec, err := h.service.SetWorkflowState(ctx, recordID, req.WorkflowState, actor, now)
		return rec, true, err
	})
}

type mutation func(ctx context.Context, recordID id.ComplianceID, actor id.UserID, now time.Time) (*models.ComplianceRecord, bool, error)

// mutate resolves the record ID, actor and clock shared by every record
// mutation. fn reports false when it already wrote a response.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn mutation) {
	ctx := r.Context()
	recordID, err := id.ParseComplianceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := httputil.Actor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	now := requestcontext.Now(ctx)

	rec, handled, err := fn(ctx, recordID, actor, now)
	if !handled {
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "compliance mutation failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeRecord(w, r, http.StatusOK, rec)
}

func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, status int, rec *models.ComplianceRecord) {
	now := requestcontext.Now(r.Context())
	httputil.WriteJSON(w, status, models.View{ComplianceRecord: rec, EffectiveStatus: rec.EffectiveStatus(now)})
}
