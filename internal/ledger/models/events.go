package models

import (
	"time"

	id "compliancehub/pkg/domain"
)

// StatusChanged is published after a successful status transition.
type StatusChanged struct {
	RecordID id.ComplianceID
	EntityID id.EntityID
	TypeID   id.ComplianceTypeID
	Period   string
	From     Status
	To       Status
	ActorID  id.UserID
	At       time.Time
}
