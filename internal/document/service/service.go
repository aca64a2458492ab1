package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"compliancehub/internal/document/metrics"
	"compliancehub/internal/document/models"
	entitymodels "compliancehub/internal/entity/models"
	ledgermodels "compliancehub/internal/ledger/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
	platformstrings "compliancehub/pkg/platform/strings"
	"compliancehub/pkg/requestcontext"
)

// Store persists documents with their history.
type Store interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Document, error)
	ListByCompliance(ctx context.Context, complianceID id.ComplianceID) ([]*models.Document, error)
	ListAll(ctx context.Context) ([]*models.Document, error)
	Execute(ctx context.Context, docID id.DocumentID, validate func(*models.Document) error, apply func(*models.Document)) (*models.Document, error)
}

// BlobStore receives document content.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// EntityReader resolves entities from the registry.
type EntityReader interface {
	GetEntityByID(ctx context.Context, entityID id.EntityID) (*entitymodels.Entity, error)
}

// ComplianceReader resolves compliance records from the ledger.
type ComplianceReader interface {
	GetCompliance(ctx context.Context, recordID id.ComplianceID) (*ledgermodels.ComplianceRecord, error)
}

// VerificationObserver is told about uploads and verification decisions
// after they commit.
type VerificationObserver interface {
	OnDocumentUploaded(ctx context.Context, evt models.DocumentUploaded)
	OnDocumentVerified(ctx context.Context, evt models.DocumentVerified)
}

// UploadInput describes an upload. Content is optional; when present its
// length overrides File.Size.
type UploadInput struct {
	EntityID     id.EntityID
	ComplianceID *id.ComplianceID
	File         models.File
	Content      []byte
	UploadedBy   id.UserID
}

// DefaultAllowedContentTypes is used when no allow-list is configured.
var DefaultAllowedContentTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DefaultMaxSizeBytes is used when no size limit is configured.
const DefaultMaxSizeBytes int64 = 25 << 20

// Service is the document verification workflow.
type Service struct {
	store        Store
	entities     EntityReader
	compliances  ComplianceReader
	blobs        BlobStore
	observers    []VerificationObserver
	allowedTypes []string
	maxSize      int64
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithObserver registers a verification observer. May be repeated.
func WithObserver(obs VerificationObserver) Option {
	return func(s *Service) {
		s.observers = append(s.observers, obs)
	}
}

// WithBlobStore enables content storage.
func WithBlobStore(blobs BlobStore) Option {
	return func(s *Service) {
		s.blobs = blobs
	}
}

// WithLimits overrides the upload size limit and content type allow-list.
// Zero or empty values keep the defaults.
func WithLimits(maxSize int64, allowedTypes []string) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.maxSize = maxSize
		}
		if types := platformstrings.DedupeAndTrimLower(allowedTypes); len(types) > 0 {
			s.allowedTypes = types
		}
	}
}

func New(store Store, entities EntityReader, compliances ComplianceReader, opts ...Option) *Service {
	s := &Service{
		store:        store,
		entities:     entities,
		compliances:  compliances,
		allowedTypes: DefaultAllowedContentTypes,
		maxSize:      DefaultMaxSizeBytes,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer("compliancehub/document"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetDocumentByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	if docID.IsNil() {
		return nil, dErrors.Validation("document_id", "document id is required")
	}
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, wrapDocumentErr(err)
	}
	return d, nil
}

// ListDocumentsByEntity returns an entity's documents in upload order.
func (s *Service) ListDocumentsByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Document, error) {
	if _, err := s.entities.GetEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, wrapDocumentErr(err)
	}
	return docs, nil
}

// ListDocumentsByCompliance returns the documents filed against a record.
func (s *Service) ListDocumentsByCompliance(ctx context.Context, complianceID id.ComplianceID) ([]*models.Document, error) {
	if _, err := s.compliances.GetCompliance(ctx, complianceID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByCompliance(ctx, complianceID)
	if err != nil {
		return nil, wrapDocumentErr(err)
	}
	return docs, nil
}

// ListDocuments returns one entity's documents, or all when entityID is nil.
func (s *Service) ListDocuments(ctx context.Context, entityID *id.EntityID) ([]*models.Document, error) {
	if entityID != nil {
		return s.ListDocumentsByEntity(ctx, *entityID)
	}
	docs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, wrapDocumentErr(err)
	}
	return docs, nil
}

// UploadDocument validates and stores a new document in state UPLOADED.
func (s *Service) UploadDocument(ctx context.Context, in UploadInput, now time.Time) (_ *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Upload", trace.WithAttributes(
		attribute.String("entity_id", in.EntityID.String()),
	))
	defer func() { endSpan(span, err) }()

	if in.UploadedBy.IsNil() {
		return nil, dErrors.Validation("uploaded_by", "uploader is required")
	}
	if in.EntityID.IsNil() {
		return nil, dErrors.Validation("entity_id", "entity id is required")
	}
	if _, err := s.entities.GetEntityByID(ctx, in.EntityID); err != nil {
		return nil, err
	}
	if in.ComplianceID != nil {
		rec, err := s.compliances.GetCompliance(ctx, *in.ComplianceID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil, dErrors.Validation("compliance_id", "compliance record does not exist")
			}
			return nil, err
		}
		if rec.EntityID != in.EntityID {
			return nil, dErrors.Validation("compliance_id", "compliance record belongs to another entity")
		}
	}

	file := models.NormalizeFile(in.File)
	file.ObjectKey = ""
	if in.Content != nil {
		file.Size = int64(len(in.Content))
	}
	if err := models.ValidateFile(file, s.maxSize); err != nil {
		return nil, err
	}
	if !slices.Contains(s.allowedTypes, file.ContentType) {
		return nil, dErrors.Validation("file.content_type", "content type "+file.ContentType+" is not allowed")
	}

	docID := id.NewDocumentID()
	if in.Content != nil && s.blobs != nil {
		key := models.ObjectKey(in.EntityID, docID, file.Name)
		if err := s.blobs.Put(ctx, key, bytes.NewReader(in.Content), file.Size, file.ContentType); err != nil {
			s.logger.ErrorContext(ctx, "document content upload failed",
				"request_id", requestcontext.RequestID(ctx),
				"document_id", docID,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document content could not be stored")
		}
		file.ObjectKey = key
	}

	doc := models.NewDocument(docID, in.EntityID, in.ComplianceID, file, in.UploadedBy, now)
	if err := s.store.Create(ctx, doc); err != nil {
		if file.ObjectKey != "" {
			s.discardContent(ctx, doc.ID, file.ObjectKey)
		}
		return nil, wrapDocumentErr(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveUpload(file.ContentType, file.Size)
	}
	s.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", doc.ID,
		"entity_id", doc.EntityID,
		"content_type", file.ContentType,
		"size", file.Size,
	)

	evt := models.DocumentUploaded{
		DocumentID:   doc.ID,
		EntityID:     doc.EntityID,
		ComplianceID: doc.ComplianceID,
		FileName:     file.Name,
		UploadedBy:   doc.UploadedBy,
		At:           now,
	}
	for _, obs := range s.observers {
		obs.OnDocumentUploaded(ctx, evt)
	}
	return doc, nil
}

// discardContent removes content whose document was never recorded.
func (s *Service) discardContent(ctx context.Context, docID id.DocumentID, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WarnContext(ctx, "orphaned document content left in blob store",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", docID,
			"object_key", key,
			"error", err,
		)
	}
}

// VerifyDocument applies a VERIFIED or REJECTED decision to an UPLOADED
// document. Decided documents cannot be re-verified.
func (s *Service) VerifyDocument(ctx context.Context, docID id.DocumentID, dec models.Decision, now time.Time) (_ *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Verify", trace.WithAttributes(
		attribute.String("document_id", docID.String()),
		attribute.String("decision", string(dec.Status)),
	))
	defer func() { endSpan(span, err) }()

	if err := dec.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.store.Execute(ctx, docID,
		(*models.Document).CanVerify,
		func(d *models.Document) { d.ApplyVerification(dec, now) },
	)
	if err != nil {
		err = wrapDocumentErr(err)
		s.logger.WarnContext(ctx, "document verification rejected",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", docID,
			"error", err,
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementVerification(string(dec.Status))
	}
	s.logger.InfoContext(ctx, "document verified",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", doc.ID,
		"decision", dec.Status,
		"verifier_id", dec.VerifierID,
	)

	evt := models.DocumentVerified{
		DocumentID:   doc.ID,
		EntityID:     doc.EntityID,
		ComplianceID: doc.ComplianceID,
		FileName:     doc.File.Name,
		Status:       dec.Status,
		VerifierID:   dec.VerifierID,
		Notes:        dec.Notes,
		At:           now,
	}
	for _, obs := range s.observers {
		obs.OnDocumentVerified(ctx, evt)
	}
	return doc, nil
}

// AddComment appends a COMMENT entry in any state.
func (s *Service) AddComment(ctx context.Context, docID id.DocumentID, text string, actor id.UserID, now time.Time) (*models.Document, error) {
	if err := models.ValidateComment(text, actor); err != nil {
		return nil, err
	}
	doc, err := s.store.Execute(ctx, docID,
		func(*models.Document) error { return nil },
		func(d *models.Document) { d.ApplyComment(text, actor, now) },
	)
	if err != nil {
		return nil, wrapDocumentErr(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementComment()
	}
	s.logger.InfoContext(ctx, "document comment added",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", doc.ID,
		"actor_id", actor,
	)
	return doc, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func wrapDocumentErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrLockTimeout):
		return dErrors.New(dErrors.CodeConcurrentModification, "document is being modified; retry")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "document history must be append-only")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "document store failure")
}
