package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	docmodels "compliancehub/internal/document/models"
	entitymodels "compliancehub/internal/entity/models"
	ledgermodels "compliancehub/internal/ledger/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/requestcontext"
)

const (
	defaultConcurrency = 4
	defaultChunkSize   = 50
	DefaultTopLimit    = 10
	maxTopLimit        = 100
)

// EntityReader lists and resolves registered entities.
type EntityReader interface {
	GetEntityByID(ctx context.Context, entityID id.EntityID) (*entitymodels.Entity, error)
	ListEntities(ctx context.Context) ([]*entitymodels.Entity, error)
}

// RecordReader is the ledger's read side. ListAll is expected to check every
// record against the registry.
type RecordReader interface {
	GetComplianceStats(ctx context.Context, entityID *id.EntityID, now time.Time) (ledgermodels.Stats, error)
	ListAll(ctx context.Context) ([]*ledgermodels.ComplianceRecord, error)
	ListByEntities(ctx context.Context, entityIDs []id.EntityID) ([]*ledgermodels.ComplianceRecord, error)
}

// DocumentReader loads documents, optionally for one entity.
type DocumentReader interface {
	ListDocuments(ctx context.Context, entityID *id.EntityID) ([]*docmodels.Document, error)
}

// EntityRollup is one entity's compliance summary.
type EntityRollup struct {
	Entity *entitymodels.Entity `json:"entity"`
	Stats  ledgermodels.Stats   `json:"stats"`
}

// Dashboard combines the headline numbers shown on the overview screen.
type Dashboard struct {
	Compliance ledgermodels.Stats `json:"compliance"`
	Documents  docmodels.Stats    `json:"documents"`
	Upcoming   int                `json:"upcoming"`
	Overdue    int                `json:"overdue"`
	WindowDays int                `json:"window_days"`
	AsOf       time.Time          `json:"as_of"`
}

// Service recomputes statistics from the current ledger and document state
// on every call. Nothing is cached.
type Service struct {
	entities    EntityReader
	records     RecordReader
	documents   DocumentReader
	logger      *slog.Logger
	tracer      trace.Tracer
	concurrency int
	chunkSize   int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithConcurrency bounds the number of entity chunks loaded in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func New(entities EntityReader, records RecordReader, documents DocumentReader, opts ...Option) *Service {
	s := &Service{
		entities:    entities,
		records:     records,
		documents:   documents,
		logger:      slog.New(slog.DiscardHandler),
		tracer:      otel.Tracer("compliancehub/stats"),
		concurrency: defaultConcurrency,
		chunkSize:   defaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetComplianceStats is answered by the ledger.
func (s *Service) GetComplianceStats(ctx context.Context, entityID *id.EntityID, now time.Time) (ledgermodels.Stats, error) {
	return s.records.GetComplianceStats(ctx, entityID, now)
}

// DocumentStats counts documents by verification state.
func (s *Service) DocumentStats(ctx context.Context, entityID *id.EntityID) (docmodels.Stats, error) {
	if entityID != nil {
		if _, err := s.entities.GetEntityByID(ctx, *entityID); err != nil {
			return docmodels.Stats{}, err
		}
	}
	docs, err := s.documents.ListDocuments(ctx, entityID)
	if err != nil {
		return docmodels.Stats{}, err
	}
	return docmodels.Summarize(docs), nil
}

// EntityRollups computes per-entity stats, loading entities in bounded
// parallel chunks. Output follows registry order.
func (s *Service) EntityRollups(ctx context.Context, now time.Time) (_ []EntityRollup, err error) {
	ctx, span := s.tracer.Start(ctx, "stats.EntityRollups")
	defer func() { endSpan(span, err) }()

	entities, err := s.entities.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("entities", len(entities)))

	rollups := make([]EntityRollup, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(entities); start += s.chunkSize {
		end := min(start+s.chunkSize, len(entities))
		chunk := entities[start:end]
		offset := start
		g.Go(func() error {
			ids := make([]id.EntityID, len(chunk))
			for i, e := range chunk {
				ids[i] = e.ID
			}
			records, err := s.records.ListByEntities(gctx, ids)
			if err != nil {
				s.logger.WarnContext(gctx, "rollup chunk failed",
					"request_id", requestcontext.RequestID(gctx),
					"offset", offset,
					"entities", len(ids),
					"error", err,
				)
				return err
			}
			byEntity := make(map[id.EntityID][]*ledgermodels.ComplianceRecord, len(chunk))
			for _, r := range records {
				byEntity[r.EntityID] = append(byEntity[r.EntityID], r)
			}
			for i, e := range chunk {
				rollups[offset+i] = EntityRollup{
					Entity: e,
					Stats:  ledgermodels.Summarize(byEntity[e.ID], now),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rollups, nil
}

// TopPerformingEntities ranks entities that have at least one record by
// completion rate, then total, then name.
func (s *Service) TopPerformingEntities(ctx context.Context, now time.Time, limit int) ([]EntityRollup, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > maxTopLimit {
		return nil, dErrors.Validation("limit", "limit must not exceed 100")
	}
	rollups, err := s.EntityRollups(ctx, now)
	if err != nil {
		return nil, err
	}
	ranked := make([]EntityRollup, 0, len(rollups))
	for _, r := range rollups {
		if r.Stats.Total > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Stats.CompletionRate != b.Stats.CompletionRate {
			return a.Stats.CompletionRate > b.Stats.CompletionRate
		}
		if a.Stats.Total != b.Stats.Total {
			return a.Stats.Total > b.Stats.Total
		}
		return strings.ToLower(a.Entity.Name) < strings.ToLower(b.Entity.Name)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Dashboard computes compliance and document stats plus upcoming and
// overdue counts from a single ledger read.
func (s *Service) Dashboard(ctx context.Context, now time.Time, windowDays int) (_ *Dashboard, err error) {
	ctx, span := s.tracer.Start(ctx, "stats.Dashboard", trace.WithAttributes(
		attribute.Int("window_days", windowDays),
	))
	defer func() { endSpan(span, err) }()

	if windowDays < 0 {
		return nil, dErrors.Validation("window_days", "window must not be negative")
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListDocuments(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Compliance: ledgermodels.Summarize(records, now),
		Documents:  docmodels.Summarize(docs),
		Upcoming:   len(ledgermodels.SelectUpcoming(records, now, windowDays)),
		Overdue:    len(ledgermodels.SelectOverdue(records, now)),
		WindowDays: windowDays,
		AsOf:       now,
	}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
