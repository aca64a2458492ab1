package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliancehub/internal/document/models"
	"compliancehub/internal/document/service"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/httputil"
	"compliancehub/pkg/requestcontext"
)

// Service is the document workflow port used by the handler.
type Service interface {
	GetDocumentByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListDocumentsByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Document, error)
	ListDocumentsByCompliance(ctx context.Context, complianceID id.ComplianceID) ([]*models.Document, error)
	UploadDocument(ctx context.Context, in service.UploadInput, now time.Time) (*models.Document, error)
	VerifyDocument(ctx context.Context, docID id.DocumentID, dec models.Decision, now time.Time) (*models.Document, error)
	AddComment(ctx context.Context, docID id.DocumentID, text string, actor id.UserID, now time.Time) (*models.Document, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	maxUpload int64
}

// New creates the handler. maxUpload bounds multipart bodies; zero uses the
// service default.
func New(svc Service, logger *slog.Logger, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxSizeBytes
	}
	return &Handler{service: svc, logger: logger, maxUpload: maxUpload}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/documents/{id}", h.HandleGet)
	r.Get("/entities/{id}/documents", h.HandleListByEntity)
	r.Get("/compliances/{id}/documents", h.HandleListByCompliance)
}

// RegisterMutations mounts endpoints that need an authenticated actor.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/documents", h.HandleUpload)
	r.Post("/documents/{id}/verify", h.HandleVerify)
	r.Post("/documents/{id}/comments", h.HandleComment)
}

type listResponse struct {
	Documents []*models.Document `json:"documents"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.GetDocumentByID(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs, err := h.service.ListDocumentsByEntity(r.Context(), entityID)
	writeList(w, docs, err)
}

func (h *Handler) HandleListByCompliance(w http.ResponseWriter, r *http.Request) {
	complianceID, err := id.ParseComplianceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs, err := h.service.ListDocumentsByCompliance(r.Context(), complianceID)
	writeList(w, docs, err)
}

func writeList(w http.ResponseWriter, docs []*models.Document, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Documents: docs})
}

// HandleUpload accepts either a JSON body or multipart/form-data with
// entity_id, optional compliance_id, and a file part.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := httputil.Actor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var in service.UploadInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, err = h.readMultipart(w, r)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid multipart upload",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	} else {
		req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		in = service.UploadInput{
			EntityID:     req.entityID,
			ComplianceID: req.complianceID,
			File:         req.file(),
			Content:      req.content,
		}
	}
	in.UploadedBy = actor

	d, err := h.service.UploadDocument(ctx, in, requestcontext.Now(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "upload document failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) readMultipart(w http.ResponseWriter, r *http.Request) (service.UploadInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+httputil.MaxBodyBytes)
	if err := r.ParseMultipartForm(httputil.MaxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.UploadInput{}, dErrors.Validation("file.size", "file exceeds the maximum upload size")
		}
		return service.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body")
	}
	entityID, complianceID, err := parseTargets(r.FormValue("entity_id"), r.FormValue("compliance_id"))
	if err != nil {
		return service.UploadInput{}, err
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		return service.UploadInput{}, dErrors.Validation("file", "file part is required")
	}
	defer part.Close()
	content, err := io.ReadAll(io.LimitReader(part, h.maxUpload+1))
	if err != nil {
		return service.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "could not read file part")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	return service.UploadInput{
		EntityID:     entityID,
		ComplianceID: complianceID,
		File:         models.File{Name: header.Filename, ContentType: contentType, Size: int64(len(content))},
		Content:      content,
	}, nil
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := httputil.Actor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.VerifyDocument(ctx, docID, models.Decision{
		Status:     req.status,
		Notes:      req.Notes,
		VerifierID: actor,
	}, requestcontext.Now(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "verify document failed",
			"request_id", requestID,
			"document_id", docID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor, err := httputil.Actor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.AddComment(ctx, docID, req.Text, actor, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}
