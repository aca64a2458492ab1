package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/catalog/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// Service is the catalog port used by the handler.
type Service interface {
	GetComplianceTypeByID(ctx context.Context, typeID id.ComplianceTypeID) (*models.ComplianceType, error)
	ListComplianceTypes(ctx context.Context) ([]*models.ComplianceType, error)
	DefineComplianceType(ctx context.Context, def models.Definition) (*models.ComplianceType, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/compliance-types", h.HandleList)
	r.Get("/compliance-types/{id}", h.HandleGet)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/compliance-types/{id}", h.HandleDefine)
}

// DefineRequest is the body of PUT /v1/compliance-types/{id}.
type DefineRequest struct {
	Name        string `json:"name"`
	FormCode    string `json:"form_code,omitempty"`
	Category    string `json:"category,omitempty"`
	Periodicity string `json:"periodicity"`
	Description string `json:"description,omitempty"`

	periodicity models.Periodicity
}

func (r *DefineRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.Validation("name", "name is required")
	}
	p, err := models.ParsePeriodicity(r.Periodicity)
	if err != nil {
		return err
	}
	r.periodicity = p
	return nil
}

type listResponse struct {
	ComplianceTypes []*models.ComplianceType `json:"compliance_types"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListComplianceTypes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.ComplianceType{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{ComplianceTypes: list})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	typeID, err := id.ParseComplianceTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := h.service.GetComplianceTypeByID(r.Context(), typeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) HandleDefine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	typeID, err := id.ParseComplianceTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DefineRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, err := h.service.DefineComplianceType(ctx, models.Definition{
		ID:          typeID,
		Name:        req.Name,
		FormCode:    req.FormCode,
		Category:    req.Category,
		Periodicity: req.periodicity,
		Description: req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "define compliance type failed",
			"request_id", requestID,
			"compliance_type_id", typeID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}
