package models

import (
	"regexp"
	"strings"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// Status is the soft lifecycle of a registered entity.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// CanTransitionTo allows active <-> inactive only.
func (s Status) CanTransitionTo(target Status) bool {
	return s.IsValid() && target.IsValid() && s != target
}

const maxNameLength = 200

var (
	cinPattern   = regexp.MustCompile(`^[LU][0-9]{5}[A-Z]{2}[0-9]{4}[A-Z]{3}[0-9]{6}$`)
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// Entity is a registered business unit tracked for compliance.
//
// Invariants:
//   - Name is non-empty and at most 200 characters
//   - CIN, GSTIN and PAN are either empty or well-formed upper-case values
//   - Entities are never deleted; Status moves between active and inactive
//   - CreatedAt is immutable after construction
type Entity struct {
	ID                id.EntityID `json:"id"`
	Name              string      `json:"name"`
	CIN               string      `json:"cin,omitempty"`
	GSTIN             string      `json:"gstin,omitempty"`
	PAN               string      `json:"pan,omitempty"`
	IncorporationDate *time.Time  `json:"incorporation_date,omitempty"`
	Status            Status      `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Profile holds the caller-editable fields of an Entity.
type Profile struct {
	Name              string
	CIN               string
	GSTIN             string
	PAN               string
	IncorporationDate *time.Time
}

// Normalize trims the profile and upper-cases registration numbers.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.CIN = normalizeRegistration(p.CIN)
	p.GSTIN = normalizeRegistration(p.GSTIN)
	p.PAN = normalizeRegistration(p.PAN)
	if p.IncorporationDate != nil {
		d := p.IncorporationDate.UTC()
		p.IncorporationDate = &d
	}
	return p
}

// Validate checks a normalized profile.
func (p Profile) Validate() error {
	if p.Name == "" {
		return dErrors.Validation("name", "name is required")
	}
	if len(p.Name) > maxNameLength {
		return dErrors.Validation("name", "name must be 200 characters or less")
	}
	if p.CIN != "" && !cinPattern.MatchString(p.CIN) {
		return dErrors.Validation("cin", "cin must be a 21 character corporate identification number")
	}
	if p.GSTIN != "" && !gstinPattern.MatchString(p.GSTIN) {
		return dErrors.Validation("gstin", "gstin must be a 15 character GST identification number")
	}
	if p.PAN != "" && !panPattern.MatchString(p.PAN) {
		return dErrors.Validation("pan", "pan must be a 10 character permanent account number")
	}
	return nil
}

func normalizeRegistration(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewEntity validates the profile and builds an active entity.
func NewEntity(entityID id.EntityID, profile Profile, now time.Time) (*Entity, error) {
	if entityID.IsNil() {
		return nil, dErrors.Validation("id", "entity id is required")
	}
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	e := &Entity{
		ID:        entityID,
		Status:    StatusActive,
		CreatedAt: now,
	}
	e.ApplyProfile(profile, now)
	return e, nil
}

// ApplyProfile overwrites the editable fields. The profile must already be
// normalized and validated.
func (e *Entity) ApplyProfile(p Profile, now time.Time) {
	e.Name = p.Name
	e.CIN = p.CIN
	e.GSTIN = p.GSTIN
	e.PAN = p.PAN
	e.IncorporationDate = p.IncorporationDate
	e.UpdatedAt = now
}

func (e *Entity) IsActive() bool {
	return e.Status == StatusActive
}

// CanDeactivate checks if the entity can transition to inactive status.
func (e *Entity) CanDeactivate() error {
	if !e.Status.CanTransitionTo(StatusInactive) {
		return dErrors.New(dErrors.CodeConflict, "entity is already inactive")
	}
	return nil
}

func (e *Entity) ApplyDeactivation(now time.Time) {
	e.Status = StatusInactive
	e.UpdatedAt = now
}

// CanReactivate checks if the entity can transition to active status.
func (e *Entity) CanReactivate() error {
	if !e.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeConflict, "entity is already active")
	}
	return nil
}

func (e *Entity) ApplyReactivation(now time.Time) {
	e.Status = StatusActive
	e.UpdatedAt = now
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	if e.IncorporationDate != nil {
		d := *e.IncorporationDate
		c.IncorporationDate = &d
	}
	return &c
}
