package models

import (
	"strings"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// Periodicity is how often an obligation recurs.
type Periodicity string

const (
	PeriodicityMonthly    Periodicity = "monthly"
	PeriodicityQuarterly  Periodicity = "quarterly"
	PeriodicityHalfYearly Periodicity = "half_yearly"
	PeriodicityAnnual     Periodicity = "annual"
	PeriodicityOneTime    Periodicity = "one_time"
	PeriodicityEventBased Periodicity = "event_based"
)

func (p Periodicity) IsValid() bool {
	switch p {
	case PeriodicityMonthly, PeriodicityQuarterly, PeriodicityHalfYearly,
		PeriodicityAnnual, PeriodicityOneTime, PeriodicityEventBased:
		return true
	}
	return false
}

// ParsePeriodicity accepts the canonical lower-case names.
func ParsePeriodicity(s string) (Periodicity, error) {
	p := Periodicity(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", dErrors.Validation("periodicity", "periodicity must be one of monthly, quarterly, half_yearly, annual, one_time, event_based")
	}
	return p, nil
}

// ComplianceType is a catalog definition of an obligation kind, e.g. GSTR-3B.
// Definitions are immutable once any compliance record references them.
type ComplianceType struct {
	ID          id.ComplianceTypeID `json:"id"`
	Name        string              `json:"name"`
	FormCode    string              `json:"form_code,omitempty"`
	Category    string              `json:"category,omitempty"`
	Periodicity Periodicity         `json:"periodicity"`
	Description string              `json:"description,omitempty"`
	Version     int                 `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Definition is the caller-supplied content of a compliance type.
type Definition struct {
	ID          id.ComplianceTypeID
	Name        string
	FormCode    string
	Category    string
	Periodicity Periodicity
	Description string
}

// Validate normalizes and checks a definition in place.
func (d *Definition) Validate() error {
	if !d.ID.IsValid() {
		return dErrors.Validation("id", "compliance type id is malformed")
	}
	d.Name = strings.TrimSpace(d.Name)
	d.FormCode = strings.TrimSpace(d.FormCode)
	d.Category = strings.TrimSpace(d.Category)
	d.Description = strings.TrimSpace(d.Description)
	if d.Name == "" {
		return dErrors.Validation("name", "name is required")
	}
	if len(d.Name) > 200 {
		return dErrors.Validation("name", "name must be 200 characters or less")
	}
	if len(d.Description) > 2000 {
		return dErrors.Validation("description", "description must be 2000 characters or less")
	}
	if !d.Periodicity.IsValid() {
		return dErrors.Validation("periodicity", "periodicity is invalid")
	}
	return nil
}

// NewComplianceType builds version 1 of a definition.
func NewComplianceType(d Definition, now time.Time) *ComplianceType {
	return &ComplianceType{
		ID:          d.ID,
		Name:        d.Name,
		FormCode:    d.FormCode,
		Category:    d.Category,
		Periodicity: d.Periodicity,
		Description: d.Description,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Redefine returns the next version of t carrying d's content.
func (t *ComplianceType) Redefine(d Definition, now time.Time) *ComplianceType {
	next := NewComplianceType(d, now)
	next.Version = t.Version + 1
	next.CreatedAt = t.CreatedAt
	return next
}

func (t *ComplianceType) Clone() *ComplianceType {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
