package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"compliancehub/internal/entity/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
	"compliancehub/pkg/requestcontext"
)

// Store persists entities.
type Store interface {
	Create(ctx context.Context, e *models.Entity) error
	FindByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
	List(ctx context.Context) ([]*models.Entity, error)
	Execute(ctx context.Context, entityID id.EntityID, validate func(*models.Entity) error, apply func(*models.Entity)) (*models.Entity, error)
}

// UpsertEntityInput creates an entity when ID is nil or unknown and
// replaces the profile of an existing one otherwise.
type UpsertEntityInput struct {
	ID      *id.EntityID
	Profile models.Profile
}

// Service is the entity registry.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetEntityByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	if entityID.IsNil() {
		return nil, dErrors.Validation("entity_id", "entity id is required")
	}
	e, err := s.store.FindByID(ctx, entityID)
	if err != nil {
		return nil, wrapEntityErr(err)
	}
	return e, nil
}

// ListEntities returns every registered entity in insertion order.
func (s *Service) ListEntities(ctx context.Context) ([]*models.Entity, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapEntityErr(err)
	}
	return list, nil
}

func (s *Service) UpsertEntity(ctx context.Context, in UpsertEntityInput) (*models.Entity, error) {
	now := requestcontext.Now(ctx)
	profile := in.Profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if in.ID != nil && !in.ID.IsNil() {
		updated, err := s.store.Execute(ctx, *in.ID,
			func(*models.Entity) error { return nil },
			func(e *models.Entity) { e.ApplyProfile(profile, now) },
		)
		if err == nil {
			s.logger.InfoContext(ctx, "entity updated",
				"request_id", requestcontext.RequestID(ctx),
				"entity_id", updated.ID,
			)
			return updated, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapEntityErr(err)
		}
	}

	entityID := id.NewEntityID()
	if in.ID != nil && !in.ID.IsNil() {
		entityID = *in.ID
	}
	e, err := models.NewEntity(entityID, profile, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConcurrentModification, "entity was created concurrently; retry")
		}
		return nil, wrapEntityErr(err)
	}
	s.logger.InfoContext(ctx, "entity registered",
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", e.ID,
	)
	return e, nil
}

// DeactivateEntity soft-deactivates an entity. Its records are kept.
func (s *Service) DeactivateEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	return s.transition(ctx, entityID, "entity deactivated",
		(*models.Entity).CanDeactivate,
		(*models.Entity).ApplyDeactivation,
	)
}

func (s *Service) ReactivateEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	return s.transition(ctx, entityID, "entity reactivated",
		(*models.Entity).CanReactivate,
		(*models.Entity).ApplyReactivation,
	)
}

func (s *Service) transition(ctx context.Context, entityID id.EntityID, msg string, can func(*models.Entity) error, apply func(*models.Entity, time.Time)) (*models.Entity, error) {
	if entityID.IsNil() {
		return nil, dErrors.Validation("entity_id", "entity id is required")
	}
	now := requestcontext.Now(ctx)
	e, err := s.store.Execute(ctx, entityID, can, func(e *models.Entity) { apply(e, now) })
	if err != nil {
		return nil, wrapEntityErr(err)
	}
	s.logger.InfoContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", e.ID,
	)
	return e, nil
}

func wrapEntityErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "entity not found")
	case errors.Is(err, sentinel.ErrLockTimeout):
		return dErrors.New(dErrors.CodeConcurrentModification, "entity is being modified; retry")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "entity store failure")
}
