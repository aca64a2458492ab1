// Package deriver turns ledger and document transitions, plus periodic
// deadline scans, into stored notifications.
package deriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalogmodels "compliancehub/internal/catalog/models"
	docmodels "compliancehub/internal/document/models"
	ledgermodels "compliancehub/internal/ledger/models"
	"compliancehub/internal/notification/metrics"
	"compliancehub/internal/notification/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
}

// Deduper remembers one-shot emissions across scans. Marks expire on the
// scan clock.
type Deduper interface {
	Mark(ctx context.Context, key string, now time.Time) (bool, error)
	Release(ctx context.Context, key string) error
}

// Publisher fans stored notifications out to external consumers.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification)
}

// UpcomingReader lists open records due inside a window.
type UpcomingReader interface {
	GetUpcomingCompliances(ctx context.Context, now time.Time, windowDays int) ([]*ledgermodels.ComplianceRecord, error)
}

// TypeReader resolves compliance type names for notification text.
type TypeReader interface {
	GetComplianceTypeByID(ctx context.Context, typeID id.ComplianceTypeID) (*catalogmodels.ComplianceType, error)
}

type Deriver struct {
	store     Store
	dedupe    Deduper
	upcoming  UpcomingReader
	types     TypeReader
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Deriver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Deriver) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Deriver) {
		d.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Deriver) {
		d.tracer = tracer
	}
}

// WithTypeReader enables compliance type names in notification titles.
func WithTypeReader(types TypeReader) Option {
	return func(d *Deriver) {
		d.types = types
	}
}

// WithPublisher enables fan-out of every stored notification.
func WithPublisher(p Publisher) Option {
	return func(d *Deriver) {
		d.publisher = p
	}
}

func New(store Store, dedupe Deduper, upcoming UpcomingReader, opts ...Option) *Deriver {
	d := &Deriver{
		store:    store,
		dedupe:   dedupe,
		upcoming: upcoming,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("compliancehub/notification"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnStatusChanged emits STATUS_CHANGE for transitions into IN_PROGRESS or
// COMPLETED.
func (d *Deriver) OnStatusChanged(ctx context.Context, evt ledgermodels.StatusChanged) {
	if evt.To != ledgermodels.StatusInProgress && evt.To != ledgermodels.StatusCompleted {
		return
	}
	name := d.typeName(ctx, evt.TypeID)
	title := fmt.Sprintf("%s %s", name, statusPhrase(evt.To))
	message := fmt.Sprintf("%s for period %s moved from %s to %s.", name, evt.Period, evt.From, evt.To)
	_ = d.emit(ctx, models.TypeStatusChange, evt.EntityID, uuid.UUID(evt.RecordID), title, message, evt.At)
}

// OnDocumentUploaded emits DOCUMENT_UPLOADED.
func (d *Deriver) OnDocumentUploaded(ctx context.Context, evt docmodels.DocumentUploaded) {
	message := fmt.Sprintf("%s was uploaded and is awaiting verification.", evt.FileName)
	_ = d.emit(ctx, models.TypeDocumentUploaded, evt.EntityID, uuid.UUID(evt.DocumentID),
		"Document uploaded", message, evt.At)
}

// OnDocumentVerified emits FILING_SUCCESS for verified documents tied to a
// compliance record and DOCUMENT_VERIFICATION otherwise.
func (d *Deriver) OnDocumentVerified(ctx context.Context, evt docmodels.DocumentVerified) {
	var (
		t       models.Type
		title   string
		message string
	)
	switch {
	case evt.Status == docmodels.StatusVerified && evt.ComplianceID != nil:
		t = models.TypeFilingSuccess
		title = "Filing evidence verified"
		message = fmt.Sprintf("%s was verified for its compliance filing.", evt.FileName)
	case evt.Status == docmodels.StatusVerified:
		t = models.TypeDocumentVerification
		title = "Document verified"
		message = fmt.Sprintf("%s was verified.", evt.FileName)
	case evt.Status == docmodels.StatusRejected:
		t = models.TypeDocumentVerification
		title = "Document rejected"
		message = fmt.Sprintf("%s was rejected.", evt.FileName)
		if evt.Notes != "" {
			message = fmt.Sprintf("%s was rejected: %s", evt.FileName, evt.Notes)
		}
	default:
		return
	}
	_ = d.emit(ctx, t, evt.EntityID, uuid.UUID(evt.DocumentID), title, message, evt.At)
}

// ScanDeadlines emits DEADLINE_APPROACHING once per record for every open
// record due within windowDays of now. A failed scan can be retried without
// duplicating notifications already stored.
func (d *Deriver) ScanDeadlines(ctx context.Context, now time.Time, windowDays int) (_ models.ScanResult, err error) {
	ctx, span := d.tracer.Start(ctx, "notification.ScanDeadlines", trace.WithAttributes(
		attribute.Int("window_days", windowDays),
	))
	defer func() { endSpan(span, err) }()
	if d.metrics != nil {
		defer d.metrics.ObserveScan(time.Now())
	}

	var result models.ScanResult
	records, err := d.upcoming.GetUpcomingCompliances(ctx, now, windowDays)
	if err != nil {
		return result, err
	}
	for _, r := range records {
		result.Scanned++
		key := models.DedupeKey(uuid.UUID(r.ID), models.TypeDeadlineApproaching)
		first, err := d.dedupe.Mark(ctx, key, now)
		if err != nil {
			return result, dErrors.Wrap(err, dErrors.CodeInternal, "dedupe store failure")
		}
		if !first {
			if d.metrics != nil {
				d.metrics.IncrementDeduplicated()
			}
			continue
		}

		name := d.typeName(ctx, r.TypeID)
		days := daysUntil(now, r.DueDate)
		title := fmt.Sprintf("%s due in %d %s", name, days, plural(days, "day", "days"))
		message := fmt.Sprintf("%s for period %s is due on %s.", name, r.Period, r.DueDate.Format("2006-01-02"))
		if err := d.emit(ctx, models.TypeDeadlineApproaching, r.EntityID, uuid.UUID(r.ID), title, message, now); err != nil {
			if relErr := d.dedupe.Release(ctx, key); relErr != nil {
				d.logger.ErrorContext(ctx, "failed to release dedupe mark",
					"request_id", requestcontext.RequestID(ctx),
					"key", key,
					"error", relErr,
				)
			}
			return result, err
		}
		result.Emitted++
	}

	span.SetAttributes(attribute.Int("scanned", result.Scanned), attribute.Int("emitted", result.Emitted))
	d.logger.InfoContext(ctx, "deadline scan completed",
		"request_id", requestcontext.RequestID(ctx),
		"window_days", windowDays,
		"scanned", result.Scanned,
		"emitted", result.Emitted,
	)
	return result, nil
}

// List returns notifications newest first.
func (d *Deriver) List(ctx context.Context, filter models.Filter) ([]*models.Notification, error) {
	list, err := d.store.List(ctx, filter)
	if err != nil {
		return nil, wrapNotificationErr(err)
	}
	return list, nil
}

func (d *Deriver) MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error) {
	if notificationID.IsNil() {
		return nil, dErrors.Validation("notification_id", "notification id is required")
	}
	n, err := d.store.MarkRead(ctx, notificationID)
	if err != nil {
		return nil, wrapNotificationErr(err)
	}
	return n, nil
}

func (d *Deriver) emit(ctx context.Context, t models.Type, entityID id.EntityID, subject uuid.UUID, title, message string, at time.Time) error {
	n, err := models.New(t, entityID, subject, title, message, at)
	if err == nil {
		err = d.store.Create(ctx, n)
	}
	if err != nil {
		if d.metrics != nil {
			d.metrics.IncrementEmitFailure(string(t))
		}
		d.logger.ErrorContext(ctx, "failed to store notification",
			"request_id", requestcontext.RequestID(ctx),
			"type", t,
			"entity_id", entityID,
			"subject_id", subject,
			"error", err,
		)
		return wrapNotificationErr(err)
	}

	if d.metrics != nil {
		d.metrics.IncrementEmitted(string(t))
	}
	if d.publisher != nil {
		d.publisher.Publish(ctx, n)
	}
	return nil
}

func (d *Deriver) typeName(ctx context.Context, typeID id.ComplianceTypeID) string {
	if d.types == nil {
		return typeID.String()
	}
	ct, err := d.types.GetComplianceTypeByID(ctx, typeID)
	if err != nil || ct.Name == "" {
		return typeID.String()
	}
	return ct.Name
}

func statusPhrase(s ledgermodels.Status) string {
	if s == ledgermodels.StatusCompleted {
		return "completed"
	}
	return "in progress"
}

// daysUntil counts whole days to due, rounding partial days up.
func daysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func wrapNotificationErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "notification already exists")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
}
