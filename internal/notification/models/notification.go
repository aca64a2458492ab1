package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// Type classifies a derived notification.
type Type string

const (
	TypeDeadlineApproaching  Type = "DEADLINE_APPROACHING"
	TypeDocumentUploaded     Type = "DOCUMENT_UPLOADED"
	TypeStatusChange         Type = "STATUS_CHANGE"
	TypeDocumentVerification Type = "DOCUMENT_VERIFICATION"
	TypeFilingSuccess        Type = "FILING_SUCCESS"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDeadlineApproaching, TypeDocumentUploaded, TypeStatusChange,
		TypeDocumentVerification, TypeFilingSuccess:
		return true
	}
	return false
}

const (
	maxTitleLength   = 200
	maxMessageLength = 2000
)

// Notification is a derived, UI-facing event. Only Read changes after creation.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	EntityID  id.EntityID       `json:"entity_id"`
	SubjectID uuid.UUID         `json:"subject_id"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// New builds an unread notification. SubjectID is the compliance record or
// document the notification is about.
func New(t Type, entityID id.EntityID, subjectID uuid.UUID, title, message string, now time.Time) (*Notification, error) {
	title = strings.TrimSpace(title)
	switch {
	case !t.IsValid():
		return nil, dErrors.Validation("type", "unknown notification type")
	case entityID.IsNil():
		return nil, dErrors.Validation("entity_id", "entity id is required")
	case subjectID == uuid.Nil:
		return nil, dErrors.Validation("subject_id", "subject id is required")
	case title == "":
		return nil, dErrors.Validation("title", "title is required")
	case len(title) > maxTitleLength:
		return nil, dErrors.Validation("title", "title must be 200 characters or less")
	case len(message) > maxMessageLength:
		return nil, dErrors.Validation("message", "message must be 2000 characters or less")
	}
	return &Notification{
		ID:        id.NewNotificationID(),
		Type:      t,
		Title:     title,
		Message:   message,
		EntityID:  entityID,
		SubjectID: subjectID,
		CreatedAt: now.UTC(),
	}, nil
}

func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// Filter narrows a notification listing.
type Filter struct {
	EntityID   *id.EntityID
	UnreadOnly bool
	Limit      int
}

func (f Filter) Matches(n *Notification) bool {
	if f.EntityID != nil && n.EntityID != *f.EntityID {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	return true
}

// DedupeKey identifies the single allowed emission of a notification type
// for one subject.
func DedupeKey(subjectID uuid.UUID, t Type) string {
	return "notification:dedupe:" + subjectID.String() + ":" + string(t)
}

// ScanResult reports one deadline scan.
type ScanResult struct {
	Scanned int `json:"scanned"`
	Emitted int `json:"emitted"`
}

// SortNewestFirst orders by creation time descending, then by ID.
func SortNewestFirst(list []*Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
