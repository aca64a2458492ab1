package handler

import (
	"strings"
	"time"

	"compliancehub/internal/entity/models"
	"compliancehub/internal/entity/service"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// UpsertEntityRequest is the body of PUT /v1/entities.
type UpsertEntityRequest struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name"`
	CIN               string `json:"cin,omitempty"`
	GSTIN             string `json:"gstin,omitempty"`
	PAN               string `json:"pan,omitempty"`
	IncorporationDate string `json:"incorporation_date,omitempty"`

	parsed service.UpsertEntityInput
}

// Validate parses identifiers and dates. Profile rules are enforced by the
// service so every caller gets the same checks.
func (r *UpsertEntityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > 1024 || len(r.CIN) > 64 || len(r.GSTIN) > 64 || len(r.PAN) > 64 {
		return dErrors.New(dErrors.CodeValidation, "field too long")
	}

	in := service.UpsertEntityInput{Profile: models.Profile{
		Name:  r.Name,
		CIN:   r.CIN,
		GSTIN: r.GSTIN,
		PAN:   r.PAN,
	}}
	if raw := strings.TrimSpace(r.ID); raw != "" {
		entityID, err := id.ParseEntityID(raw)
		if err != nil {
			return err
		}
		in.ID = &entityID
	}
	if raw := strings.TrimSpace(r.IncorporationDate); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return dErrors.Validation("incorporation_date", "incorporation_date must be YYYY-MM-DD")
		}
		in.Profile.IncorporationDate = &d
	}
	r.parsed = in
	return nil
}

func (r *UpsertEntityRequest) Input() service.UpsertEntityInput {
	return r.parsed
}
