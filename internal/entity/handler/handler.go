package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/entity/models"
	"compliancehub/internal/entity/service"
	id "compliancehub/pkg/domain"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// Service is the entity registry port used by the handler.
type Service interface {
	GetEntityByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
	ListEntities(ctx context.Context) ([]*models.Entity, error)
	UpsertEntity(ctx context.Context, in service.UpsertEntityInput) (*models.Entity, error)
	DeactivateEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
	ReactivateEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
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
	r.Get("/entities", h.HandleList)
	r.Get("/entities/{id}", h.HandleGet)
}

// RegisterAdmin mounts registry maintenance endpoints. The caller applies
// the admin guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/entities", h.HandleUpsert)
	r.Post("/entities/{id}/deactivate", h.HandleDeactivate)
	r.Post("/entities/{id}/reactivate", h.HandleReactivate)
}

type listResponse struct {
	Entities []*models.Entity `json:"entities"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListEntities(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list entities failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.Entity{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Entities: list})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.service.GetEntityByID(r.Context(), entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpsertEntityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	e, err := h.service.UpsertEntity(ctx, req.Input())
	if err != nil {
		h.logger.WarnContext(ctx, "upsert entity failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.service.DeactivateEntity)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.service.ReactivateEntity)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, id.EntityID) (*models.Entity, error)) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := op(r.Context(), entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}
