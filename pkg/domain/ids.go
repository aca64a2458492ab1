package domain

import (
	"github.com/google/uuid"

	dErrors "compliancehub/pkg/domain-errors"
)

// Typed identifiers prevent passing an entity ID where a record ID is
// expected. Construct them with the Parse* functions at trust boundaries;
// New* mint fresh random IDs.
type (
	EntityID       uuid.UUID
	ComplianceID   uuid.UUID
	DocumentID     uuid.UUID
	NotificationID uuid.UUID
	UserID         uuid.UUID
)

// maxIDLength bounds input before handing it to the UUID parser.
const maxIDLength = 64

func parseID[T ~[16]byte](kind, s string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	if len(s) > maxIDLength {
		return zero, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeValidation, kind+" must not be nil")
	}
	return T(u), nil
}

func unmarshalID[T ~[16]byte](dst *T, kind string, text []byte) error {
	if len(text) == 0 {
		*dst = T(uuid.Nil)
		return nil
	}
	v, err := parseID[T](kind, string(text))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func ParseEntityID(s string) (EntityID, error)         { return parseID[EntityID]("entity_id", s) }
func ParseComplianceID(s string) (ComplianceID, error) { return parseID[ComplianceID]("compliance_id", s) }
func ParseDocumentID(s string) (DocumentID, error)     { return parseID[DocumentID]("document_id", s) }
func ParseNotificationID(s string) (NotificationID, error) {
	return parseID[NotificationID]("notification_id", s)
}
func ParseUserID(s string) (UserID, error) { return parseID[UserID]("user_id", s) }

func NewEntityID() EntityID             { return EntityID(uuid.New()) }
func NewComplianceID() ComplianceID     { return ComplianceID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewUserID() UserID                 { return UserID(uuid.New()) }

func (i EntityID) String() string { return uuid.UUID(i).String() }
func (i EntityID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i EntityID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
func (i *EntityID) UnmarshalText(b []byte) error { return unmarshalID(i, "entity_id", b) }

func (i ComplianceID) String() string { return uuid.UUID(i).String() }
func (i ComplianceID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i ComplianceID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
func (i *ComplianceID) UnmarshalText(b []byte) error { return unmarshalID(i, "compliance_id", b) }

func (i DocumentID) String() string { return uuid.UUID(i).String() }
func (i DocumentID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i DocumentID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
func (i *DocumentID) UnmarshalText(b []byte) error { return unmarshalID(i, "document_id", b) }

func (i NotificationID) String() string { return uuid.UUID(i).String() }
func (i NotificationID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i NotificationID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
func (i *NotificationID) UnmarshalText(b []byte) error {
	return unmarshalID(i, "notification_id", b)
}

func (i UserID) String() string { return uuid.UUID(i).String() }
func (i UserID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i UserID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
func (i *UserID) UnmarshalText(b []byte) error { return unmarshalID(i, "user_id", b) }
