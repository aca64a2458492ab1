package service

import (
	"context"
	"errors"
	"log/slog"

	"compliancehub/internal/catalog/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// Store persists compliance type definitions.
type Store interface {
	FindByID(ctx context.Context, typeID id.ComplianceTypeID) (*models.ComplianceType, error)
	List(ctx context.Context) ([]*models.ComplianceType, error)
	Define(ctx context.Context, typeID id.ComplianceTypeID, build func(existing *models.ComplianceType) (*models.ComplianceType, error)) (*models.ComplianceType, error)
}

// ReferenceCounter reports how many compliance records use a type.
// Implemented by the ledger store.
type ReferenceCounter interface {
	CountByType(ctx context.Context, typeID id.ComplianceTypeID) (int, error)
}

// Service is the compliance type catalog.
type Service struct {
	store  Store
	refs   ReferenceCounter
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithReferenceCounter enables the redefinition guard. Without it every
// existing type is treated as unreferenced.
func WithReferenceCounter(refs ReferenceCounter) Option {
	return func(s *Service) {
		s.refs = refs
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReferenceCounter wires the ledger after construction; the ledger
// depends on the catalog so the two are built in sequence.
func (s *Service) SetReferenceCounter(refs ReferenceCounter) {
	s.refs = refs
}

func (s *Service) GetComplianceTypeByID(ctx context.Context, typeID id.ComplianceTypeID) (*models.ComplianceType, error) {
	t, err := s.store.FindByID(ctx, typeID)
	if err != nil {
		return nil, wrapCatalogErr(err)
	}
	return t, nil
}

// ListComplianceTypes returns the catalog sorted by ID.
func (s *Service) ListComplianceTypes(ctx context.Context) ([]*models.ComplianceType, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapCatalogErr(err)
	}
	return list, nil
}

// DefineComplianceType creates version 1 of a new ID or replaces an
// unreferenced definition with the next version. Referenced definitions are
// immutable.
func (s *Service) DefineComplianceType(ctx context.Context, def models.Definition) (*models.ComplianceType, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	t, err := s.store.Define(ctx, def.ID, func(existing *models.ComplianceType) (*models.ComplianceType, error) {
		if existing == nil {
			return models.NewComplianceType(def, now), nil
		}
		if s.refs != nil {
			n, err := s.refs.CountByType(ctx, def.ID)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, dErrors.New(dErrors.CodeConflict, "compliance type is referenced; define a new identifier")
			}
		}
		return existing.Redefine(def, now), nil
	})
	if err != nil {
		return nil, wrapCatalogErr(err)
	}

	s.logger.InfoContext(ctx, "compliance type defined",
		"request_id", requestcontext.RequestID(ctx),
		"compliance_type_id", t.ID,
		"version", t.Version,
	)
	return t, nil
}

// Seed defines each entry that is not already present. Existing definitions
// are left alone so restarts do not bump versions.
func (s *Service) Seed(ctx context.Context, defs []models.Definition) (int, error) {
	created := 0
	for _, def := range defs {
		if _, err := s.store.FindByID(ctx, def.ID); err == nil {
			continue
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return created, wrapCatalogErr(err)
		}
		if _, err := s.DefineComplianceType(ctx, def); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func wrapCatalogErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "compliance type not found")
	case errors.Is(err, sentinel.ErrLockTimeout):
		return dErrors.New(dErrors.CodeConcurrentModification, "compliance type is being modified; retry")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "catalog store failure")
}
