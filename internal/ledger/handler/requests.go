package handler

import (
	"strings"
	"time"

	"compliancehub/internal/ledger/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// ScheduleRequest is the body of POST /v1/compliances.
type ScheduleRequest struct {
	EntityID         string `json:"entity_id"`
	ComplianceTypeID string `json:"compliance_type_id"`
	Period           string `json:"period"`
	DueDate          string `json:"due_date"`
	AssigneeID       string `json:"assignee_id,omitempty"`

	entityID id.EntityID
	typeID   id.ComplianceTypeID
	dueDate  time.Time
	assignee *id.UserID
}

func (r *ScheduleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.entityID, err = id.ParseEntityID(r.EntityID); err != nil {
		return err
	}
	if r.typeID, err = id.ParseComplianceTypeID(r.ComplianceTypeID); err != nil {
		return err
	}
	if strings.TrimSpace(r.Period) == "" {
		return dErrors.Validation("period", "period is required")
	}
	if r.dueDate, err = parseDueDate(r.DueDate); err != nil {
		return err
	}
	if strings.TrimSpace(r.AssigneeID) != "" {
		assignee, err := id.ParseUserID(r.AssigneeID)
		if err != nil {
			return dErrors.Validation("assignee_id", "assignee_id must be a UUID")
		}
		r.assignee = &assignee
	}
	return nil
}

// parseDueDate accepts RFC3339 or a bare YYYY-MM-DD date (midnight UTC).
func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, dErrors.Validation("due_date", "due_date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.Validation("due_date", "due_date must be RFC3339 or YYYY-MM-DD")
}

// StatusRequest is the body of POST /v1/compliances/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`

	status models.Status
}

func (r *StatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	st, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = st
	return nil
}

// AssignRequest is the body of POST /v1/compliances/{id}/assign.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`

	assignee id.UserID
}

func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	assignee, err := id.ParseUserID(r.AssigneeID)
	if err != nil {
		return dErrors.Validation("assignee_id", "assignee_id must be a UUID")
	}
	r.assignee = assignee
	return nil
}

// WorkflowStateRequest is the body of POST /v1/compliances/{id}/workflow-state.
type WorkflowStateRequest struct {
	WorkflowState string `json:"workflow_state"`
}

func (r *WorkflowStateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.WorkflowState = strings.TrimSpace(r.WorkflowState)
	return nil
}
