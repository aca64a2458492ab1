package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/notification/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

const maxListLimit = 500

// Service is the notification port used by the handler.
type Service interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
	ScanDeadlines(ctx context.Context, now time.Time, windowDays int) (models.ScanResult, error)
}

type Handler struct {
	service           Service
	logger            *slog.Logger
	defaultWindowDays int
}

// New creates the handler. defaultWindowDays applies to scans that do not
// pass window_days.
func New(svc Service, logger *slog.Logger, defaultWindowDays int) *Handler {
	return &Handler{service: svc, logger: logger, defaultWindowDays: defaultWindowDays}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
}

// RegisterMutations mounts endpoints that need an authenticated actor.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
}

// RegisterAdmin mounts operator endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/notifications/scan", h.HandleScan)
}

type listResponse struct {
	Notifications []*models.Notification `json:"notifications"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entityID, err := httputil.QueryEntityID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	unread, err := httputil.QueryBool(r, "unread")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 100)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if limit <= 0 || limit > maxListLimit {
		httputil.WriteError(w, dErrors.Validation("limit", "limit must be between 1 and 500"))
		return
	}

	list, err := h.service.List(r.Context(), models.Filter{EntityID: entityID, UnreadOnly: unread, Limit: limit})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Notifications: list})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if _, err := httputil.Actor(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.MarkRead(r.Context(), notificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

// HandleScan runs a deadline scan for the supplied or current instant.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now, err := httputil.QueryNow(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	window, err := httputil.QueryInt(r, "window_days", h.defaultWindowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.ScanDeadlines(ctx, now, window)
	if err != nil {
		h.logger.ErrorContext(ctx, "deadline scan failed",
			"request_id", requestcontext.RequestID(ctx),
			"scanned", res.Scanned,
			"emitted", res.Emitted,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
