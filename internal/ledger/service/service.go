package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalogmodels "compliancehub/internal/catalog/models"
	entitymodels "compliancehub/internal/entity/models"
	"compliancehub/internal/ledger/metrics"
	"compliancehub/internal/ledger/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// Store persists compliance records.
type Store interface {
	Create(ctx context.Context, r *models.ComplianceRecord) error
	FindByID(ctx context.Context, recordID id.ComplianceID) (*models.ComplianceRecord, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.ComplianceRecord, error)
	ListByEntities(ctx context.Context, entityIDs []id.EntityID) ([]*models.ComplianceRecord, error)
	ListAll(ctx context.Context) ([]*models.ComplianceRecord, error)
	ListOpen(ctx context.Context) ([]*models.ComplianceRecord, error)
	CountByType(ctx context.Context, typeID id.ComplianceTypeID) (int, error)
	Execute(ctx context.Context, recordID id.ComplianceID, validate func(*models.ComplianceRecord) error, apply func(*models.ComplianceRecord)) (*models.ComplianceRecord, error)
}

// EntityReader resolves entities from the registry.
type EntityReader interface {
	GetEntityByID(ctx context.Context, entityID id.EntityID) (*entitymodels.Entity, error)
	ListEntities(ctx context.Context) ([]*entitymodels.Entity, error)
}

// TypeReader resolves compliance types from the catalog.
type TypeReader interface {
	GetComplianceTypeByID(ctx context.Context, typeID id.ComplianceTypeID) (*catalogmodels.ComplianceType, error)
}

// TransitionObserver is told about every committed status change. It runs
// after the record lock is released.
type TransitionObserver interface {
	OnStatusChanged(ctx context.Context, evt models.StatusChanged)
}

// ScheduleInput describes a new obligation instance.
type ScheduleInput struct {
	EntityID   id.EntityID
	TypeID     id.ComplianceTypeID
	Period     string
	DueDate    time.Time
	AssigneeID *id.UserID
}

// Service is the compliance ledger.
type Service struct {
	store     Store
	entities  EntityReader
	types     TypeReader
	observers []TransitionObserver
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

// WithObserver registers a transition observer. May be repeated.
func WithObserver(obs TransitionObserver) Option {
	return func(s *Service) {
		s.observers = append(s.observers, obs)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store Store, entities EntityReader, types TypeReader, opts ...Option) *Service {
	s := &Service{
		store:    store,
		entities: entities,
		types:    types,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("compliancehub/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleCompliance creates a PENDING record for an active entity and a
// catalogued type. A second record for the same entity, type and period
// is a conflict.
func (s *Service) ScheduleCompliance(ctx context.Context, in ScheduleInput) (_ *models.ComplianceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ScheduleCompliance", trace.WithAttributes(
		attribute.String("entity_id", in.EntityID.String()),
		attribute.String("compliance_type_id", in.TypeID.String()),
	))
	defer func() { endSpan(span, err) }()

	if in.EntityID.IsNil() {
		return nil, dErrors.Validation("entity_id", "entity id is required")
	}
	entity, err := s.entities.GetEntityByID(ctx, in.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.Status != entitymodels.StatusActive {
		return nil, dErrors.Validation("entity_id", "entity is inactive")
	}
	if !in.TypeID.IsValid() {
		return nil, dErrors.Validation("compliance_type_id", "compliance type id is invalid")
	}
	if _, err := s.types.GetComplianceTypeByID(ctx, in.TypeID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.Validation("compliance_type_id", "unknown compliance type")
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	record, err := models.NewRecord(id.NewComplianceID(), in.EntityID, in.TypeID, in.Period, in.DueDate, in.AssigneeID, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a compliance record already exists for this entity, type and period")
		}
		return nil, wrapLedgerErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementScheduled()
	}
	s.logger.InfoContext(ctx, "compliance scheduled",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", record.ID,
		"entity_id", record.EntityID,
		"compliance_type_id", record.TypeID,
		"period", record.Period,
	)
	return record, nil
}

func (s *Service) GetCompliance(ctx context.Context, recordID id.ComplianceID) (*models.ComplianceRecord, error) {
	if recordID.IsNil() {
		return nil, dErrors.Validation("compliance_id", "compliance id is required")
	}
	r, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	return r, nil
}

// GetCompliancesByEntity lists an entity's records, newest due date first.
func (s *Service) GetCompliancesByEntity(ctx context.Context, entityID id.EntityID) ([]*models.ComplianceRecord, error) {
	if _, err := s.entities.GetEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	models.SortByDueDesc(records)
	return records, nil
}

// GetComplianceStats summarizes one entity's records, or every record when
// entityID is nil, by effective status at now.
func (s *Service) GetComplianceStats(ctx context.Context, entityID *id.EntityID, now time.Time) (models.Stats, error) {
	defer s.observeQuery("stats", time.Now())
	if entityID == nil {
		records, err := s.ListAll(ctx)
		if err != nil {
			return models.Stats{}, err
		}
		return models.Summarize(records, now), nil
	}
	if _, err := s.entities.GetEntityByID(ctx, *entityID); err != nil {
		return models.Stats{}, err
	}
	records, err := s.store.ListByEntity(ctx, *entityID)
	if err != nil {
		return models.Stats{}, wrapLedgerErr(err)
	}
	return models.Summarize(records, now), nil
}

// GetUpcomingCompliances returns open records due within
// [now, now+windowDays], ascending by due date.
func (s *Service) GetUpcomingCompliances(ctx context.Context, now time.Time, windowDays int) ([]*models.ComplianceRecord, error) {
	defer s.observeQuery("upcoming", time.Now())
	if windowDays < 0 {
		return nil, dErrors.Validation("window_days", "window must not be negative")
	}
	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	return models.SelectUpcoming(open, now, windowDays), nil
}

// GetOverdueCompliances returns open records due before now, ascending.
func (s *Service) GetOverdueCompliances(ctx context.Context, now time.Time) ([]*models.ComplianceRecord, error) {
	defer s.observeQuery("overdue", time.Now())
	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	return models.SelectOverdue(open, now), nil
}

// ListByEntities loads the records of a batch of entities.
func (s *Service) ListByEntities(ctx context.Context, entityIDs []id.EntityID) ([]*models.ComplianceRecord, error) {
	records, err := s.store.ListByEntities(ctx, entityIDs)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	return records, nil
}

// ListAll returns every record, checked against the registry. Records are
// read before entities: entities are never removed, so any entity onboarded
// between the two reads only widens the registry side. A record naming an
// unregistered entity aborts the read.
func (s *Service) ListAll(ctx context.Context) ([]*models.ComplianceRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	entities, err := s.entities.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[id.EntityID]struct{}, len(entities))
	for _, e := range entities {
		known[e.ID] = struct{}{}
	}
	for _, r := range records {
		if _, ok := known[r.EntityID]; !ok {
			s.logger.ErrorContext(ctx, "compliance record references unknown entity",
				"request_id", requestcontext.RequestID(ctx),
				"record_id", r.ID,
				"entity_id", r.EntityID,
			)
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "compliance record references an unknown entity")
		}
	}
	return records, nil
}

// CountByType satisfies the catalog's reference counter.
func (s *Service) CountByType(ctx context.Context, typeID id.ComplianceTypeID) (int, error) {
	n, err := s.store.CountByType(ctx, typeID)
	if err != nil {
		return 0, wrapLedgerErr(err)
	}
	return n, nil
}

// UpdateStatus applies a legal status transition and notifies observers.
func (s *Service) UpdateStatus(ctx context.Context, recordID id.ComplianceID, to models.Status, actor id.UserID, now time.Time) (_ *models.ComplianceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.UpdateStatus", trace.WithAttributes(
		attribute.String("record_id", recordID.String()),
		attribute.String("to", string(to)),
	))
	defer func() { endSpan(span, err) }()

	if actor.IsNil() {
		return nil, dErrors.Validation("actor", "actor is required")
	}

	var from models.Status
	updated, err := s.store.Execute(ctx, recordID,
		func(r *models.ComplianceRecord) error {
			from = r.Status
			return r.CanTransitionTo(to)
		},
		func(r *models.ComplianceRecord) { r.ApplyStatus(to, now) },
	)
	if err != nil {
		err = wrapLedgerErr(err)
		s.recordRejection(ctx, recordID, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(from), string(to))
	}
	s.logger.InfoContext(ctx, "compliance status changed",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", updated.ID,
		"from", from,
		"to", to,
		"actor_id", actor,
	)

	evt := models.StatusChanged{
		RecordID: updated.ID,
		EntityID: updated.EntityID,
		TypeID:   updated.TypeID,
		Period:   updated.Period,
		From:     from,
		To:       to,
		ActorID:  actor,
		At:       now,
	}
	for _, obs := range s.observers {
		obs.OnStatusChanged(ctx, evt)
	}
	return updated, nil
}

// Assign sets the record's assignee. Permitted in every status.
func (s *Service) Assign(ctx context.Context, recordID id.ComplianceID, assignee id.UserID, actor id.UserID, now time.Time) (_ *models.ComplianceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Assign", trace.WithAttributes(
		attribute.String("record_id", recordID.String()),
	))
	defer func() { endSpan(span, err) }()

	if assignee.IsNil() {
		return nil, dErrors.Validation("assignee_id", "assignee is required")
	}
	updated, err := s.store.Execute(ctx, recordID,
		func(*models.ComplianceRecord) error { return nil },
		func(r *models.ComplianceRecord) { r.ApplyAssignment(assignee, now) },
	)
	if err != nil {
		return nil, wrapLedgerErr(err)
	}
	s.logger.InfoContext(ctx, "compliance assigned",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", updated.ID,
		"assignee_id", assignee,
		"actor_id", actor,
	)
	return updated, nil
}

// SetWorkflowState records a free-form sub-state on an open record.
func (s *Service) SetWorkflowState(ctx context.Context, recordID id.ComplianceID, state string, actor id.UserID, now time.Time) (_ *models.ComplianceRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.SetWorkflowState", trace.WithAttributes(
		attribute.String("record_id", recordID.String()),
	))
	defer func() { endSpan(span, err) }()

	updated, err := s.store.Execute(ctx, recordID,
		func(r *models.ComplianceRecord) error { return r.CanSetWorkflowState(state) },
		func(r *models.ComplianceRecord) { r.ApplyWorkflowState(state, now) },
	)
	if err != nil {
		err = wrapLedgerErr(err)
		s.recordRejection(ctx, recordID, err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "compliance workflow state set",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", updated.ID,
		"workflow_state", state,
		"actor_id", actor,
	)
	return updated, nil
}

func (s *Service) recordRejection(ctx context.Context, recordID id.ComplianceID, err error) {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		if code == dErrors.CodeConcurrentModification {
			s.metrics.IncrementLockContention()
		}
		s.metrics.IncrementRejected(string(code))
	}
	s.logger.WarnContext(ctx, "compliance mutation rejected",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", recordID,
		"code", code,
		"error", err,
	)
}

func (s *Service) observeQuery(query string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(query, start)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func wrapLedgerErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "compliance record not found")
	case errors.Is(err, sentinel.ErrLockTimeout):
		return dErrors.New(dErrors.CodeConcurrentModification, "compliance record is being modified; retry")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
}
