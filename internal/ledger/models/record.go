package models

import (
	"strings"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// Status is the persisted state of a compliance record. OVERDUE is never
// stored; it is derived at read time by EffectiveStatus.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusOverdue    Status = "OVERDUE"
)

// ParseStatus accepts any of the four status names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return st, nil
	}
	return "", dErrors.Validation("status", "status must be one of PENDING, IN_PROGRESS, COMPLETED")
}

// transitions lists the legal persisted moves.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
}

// CanTransitionTo reports whether from -> to is a legal persisted move.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

const (
	maxPeriodLength        = 32
	maxWorkflowStateLength = 64
)

// ComplianceRecord is one instance of an obligation owed by an entity.
//
// Invariants:
//   - Status is PENDING, IN_PROGRESS or COMPLETED
//   - COMPLETED is terminal and CompletedAt is set exactly when Status is COMPLETED
//   - (EntityID, TypeID, Period) is unique
type ComplianceRecord struct {
	ID            id.ComplianceID     `json:"id"`
	EntityID      id.EntityID         `json:"entity_id"`
	TypeID        id.ComplianceTypeID `json:"compliance_type_id"`
	Period        string              `json:"period"`
	DueDate       time.Time           `json:"due_date"`
	Status        Status              `json:"status"`
	AssigneeID    *id.UserID          `json:"assignee_id,omitempty"`
	WorkflowState string              `json:"workflow_state,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewRecord builds a PENDING record.
func NewRecord(recordID id.ComplianceID, entityID id.EntityID, typeID id.ComplianceTypeID, period string, due time.Time, assignee *id.UserID, now time.Time) (*ComplianceRecord, error) {
	period = strings.TrimSpace(period)
	switch {
	case entityID.IsNil():
		return nil, dErrors.Validation("entity_id", "entity id is required")
	case !typeID.IsValid():
		return nil, dErrors.Validation("compliance_type_id", "compliance type id is required")
	case period == "":
		return nil, dErrors.Validation("period", "period is required")
	case len(period) > maxPeriodLength:
		return nil, dErrors.Validation("period", "period must be 32 characters or less")
	case due.IsZero():
		return nil, dErrors.Validation("due_date", "due date is required")
	}
	r := &ComplianceRecord{
		ID:        recordID,
		EntityID:  entityID,
		TypeID:    typeID,
		Period:    period,
		DueDate:   due.UTC(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if assignee != nil && !assignee.IsNil() {
		a := *assignee
		r.AssigneeID = &a
	}
	return r, nil
}

// IsOverdue is true iff the due date has passed and the record is not completed.
func (r *ComplianceRecord) IsOverdue(now time.Time) bool {
	return r.DueDate.Before(now) && r.Status != StatusCompleted
}

// EffectiveStatus is the persisted status, or OVERDUE when IsOverdue.
func (r *ComplianceRecord) EffectiveStatus(now time.Time) Status {
	if r.IsOverdue(now) {
		return StatusOverdue
	}
	return r.Status
}

// CanTransitionTo validates a requested status change.
func (r *ComplianceRecord) CanTransitionTo(to Status) error {
	switch to {
	case StatusPending, StatusInProgress, StatusCompleted:
	case StatusOverdue:
		return dErrors.New(dErrors.CodeInvalidTransition, "OVERDUE is derived and cannot be set")
	default:
		return dErrors.Validation("status", "unknown status")
	}
	if !r.Status.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot transition from "+string(r.Status)+" to "+string(to))
	}
	return nil
}

// ApplyStatus moves to a validated status. Completion stamps CompletedAt.
func (r *ComplianceRecord) ApplyStatus(to Status, now time.Time) {
	r.Status = to
	if to == StatusCompleted {
		t := now
		r.CompletedAt = &t
	}
	r.UpdatedAt = now
}

// ApplyAssignment replaces the assignee. Status is untouched.
func (r *ComplianceRecord) ApplyAssignment(assignee id.UserID, now time.Time) {
	a := assignee
	r.AssigneeID = &a
	r.UpdatedAt = now
}

// CanSetWorkflowState rejects sub-state changes on completed records.
func (r *ComplianceRecord) CanSetWorkflowState(state string) error {
	if len(state) > maxWorkflowStateLength {
		return dErrors.Validation("workflow_state", "workflow state must be 64 characters or less")
	}
	if r.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeInvalidTransition, "completed records are immutable")
	}
	return nil
}

func (r *ComplianceRecord) ApplyWorkflowState(state string, now time.Time) {
	r.WorkflowState = state
	r.UpdatedAt = now
}

// Clone returns a deep copy.
func (r *ComplianceRecord) Clone() *ComplianceRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.AssigneeID != nil {
		a := *r.AssigneeID
		c.AssigneeID = &a
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// View is a record annotated with its effective status at a given instant.
type View struct {
	*ComplianceRecord
	EffectiveStatus Status `json:"effective_status"`
}

// NewViews annotates records for presentation.
func NewViews(records []*ComplianceRecord, now time.Time) []View {
	out := make([]View, 0, len(records))
	for _, r := range records {
		out = append(out, View{ComplianceRecord: r, EffectiveStatus: r.EffectiveStatus(now)})
	}
	return out
}
