package models

import (
	"time"

	id "compliancehub/pkg/domain"
)

// DocumentUploaded is published after a document is stored.
type DocumentUploaded struct {
	DocumentID   id.DocumentID
	EntityID     id.EntityID
	ComplianceID *id.ComplianceID
	FileName     string
	UploadedBy   id.UserID
	At           time.Time
}

// DocumentVerified is published after a verification decision commits.
type DocumentVerified struct {
	DocumentID   id.DocumentID
	EntityID     id.EntityID
	ComplianceID *id.ComplianceID
	FileName     string
	Status       Status
	VerifierID   id.UserID
	Notes        string
	At           time.Time
}
