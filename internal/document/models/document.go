package models

import (
	"path"
	"strings"
	"time"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// Status is the verification state of a document. VERIFIED and REJECTED
// are terminal.
type Status string

const (
	StatusUploaded Status = "UPLOADED"
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

// Action labels a history entry.
type Action string

const (
	ActionUploaded Action = "UPLOADED"
	ActionVerified Action = "VERIFIED"
	ActionRejected Action = "REJECTED"
	ActionComment  Action = "COMMENT"
)

const (
	maxFileNameLength = 255
	maxNotesLength    = 2000
)

// File is the uploaded file's metadata. ObjectKey is set when the content
// was written to blob storage.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ObjectKey   string `json:"object_key,omitempty"`
}

// HistoryEntry is one append-only audit record.
type HistoryEntry struct {
	Action  Action    `json:"action"`
	ActorID id.UserID `json:"actor_id"`
	Notes   string    `json:"notes,omitempty"`
	At      time.Time `json:"at"`
}

// Document is evidence uploaded for an entity, optionally tied to one
// compliance record.
type Document struct {
	ID                id.DocumentID    `json:"id"`
	EntityID          id.EntityID      `json:"entity_id"`
	ComplianceID      *id.ComplianceID `json:"compliance_id,omitempty"`
	File              File             `json:"file"`
	Status            Status           `json:"status"`
	UploadedBy        id.UserID        `json:"uploaded_by"`
	UploadedAt        time.Time        `json:"uploaded_at"`
	VerifierID        *id.UserID       `json:"verifier_id,omitempty"`
	VerificationNotes string           `json:"verification_notes,omitempty"`
	VerifiedAt        *time.Time       `json:"verified_at,omitempty"`
	History           []HistoryEntry   `json:"history"`
}

// NewDocument builds an UPLOADED document with its first history entry.
func NewDocument(docID id.DocumentID, entityID id.EntityID, complianceID *id.ComplianceID, file File, uploadedBy id.UserID, now time.Time) *Document {
	d := &Document{
		ID:         docID,
		EntityID:   entityID,
		File:       file,
		Status:     StatusUploaded,
		UploadedBy: uploadedBy,
		UploadedAt: now,
		History: []HistoryEntry{{
			Action:  ActionUploaded,
			ActorID: uploadedBy,
			At:      now,
		}},
	}
	if complianceID != nil {
		c := *complianceID
		d.ComplianceID = &c
	}
	return d
}

// NormalizeFile trims the name and canonicalizes the content type.
func NormalizeFile(f File) File {
	f.Name = strings.TrimSpace(path.Base(strings.ReplaceAll(f.Name, "\\", "/")))
	if f.Name == "." || f.Name == "/" {
		f.Name = ""
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	f.ContentType = ct
	return f
}

// ValidateFile checks required metadata and size limits. A maxSize of zero
// disables the upper bound.
func ValidateFile(f File, maxSize int64) error {
	switch {
	case f.Name == "":
		return dErrors.Validation("file.name", "file name is required")
	case len(f.Name) > maxFileNameLength:
		return dErrors.Validation("file.name", "file name must be 255 characters or less")
	case f.ContentType == "":
		return dErrors.Validation("file.content_type", "content type is required")
	case f.Size <= 0:
		return dErrors.Validation("file.size", "file must not be empty")
	case maxSize > 0 && f.Size > maxSize:
		return dErrors.Validation("file.size", "file exceeds the maximum upload size")
	}
	return nil
}

// ObjectKey is where a document's content lives in blob storage.
func ObjectKey(entityID id.EntityID, docID id.DocumentID, name string) string {
	return "entities/" + entityID.String() + "/documents/" + docID.String() + "/" + name
}

// Decision is a verifier's outcome for an UPLOADED document.
type Decision struct {
	Status     Status
	Notes      string
	VerifierID id.UserID
}

func (d Decision) Validate() error {
	if d.Status != StatusVerified && d.Status != StatusRejected {
		return dErrors.Validation("status", "decision must be VERIFIED or REJECTED")
	}
	if d.VerifierID.IsNil() {
		return dErrors.Validation("verifier_id", "verifier is required")
	}
	if len(d.Notes) > maxNotesLength {
		return dErrors.Validation("notes", "notes must be 2000 characters or less")
	}
	return nil
}

// ParseDecisionStatus accepts VERIFIED or REJECTED, case-insensitively.
func ParseDecisionStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if st != StatusVerified && st != StatusRejected {
		return "", dErrors.Validation("status", "decision must be VERIFIED or REJECTED")
	}
	return st, nil
}

// CanVerify allows a decision only on UPLOADED documents.
func (d *Document) CanVerify() error {
	if d.Status != StatusUploaded {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"document is already "+string(d.Status)+"; upload a new document instead")
	}
	return nil
}

// ApplyVerification records the decision and appends its history entry.
func (d *Document) ApplyVerification(dec Decision, now time.Time) {
	verifier := dec.VerifierID
	at := now
	d.Status = dec.Status
	d.VerifierID = &verifier
	d.VerificationNotes = dec.Notes
	d.VerifiedAt = &at

	action := ActionVerified
	if dec.Status == StatusRejected {
		action = ActionRejected
	}
	d.History = append(d.History, HistoryEntry{
		Action:  action,
		ActorID: dec.VerifierID,
		Notes:   dec.Notes,
		At:      now,
	})
}

// ValidateComment checks a comment before it is appended.
func ValidateComment(text string, actor id.UserID) error {
	switch {
	case strings.TrimSpace(text) == "":
		return dErrors.Validation("text", "comment text is required")
	case len(text) > maxNotesLength:
		return dErrors.Validation("text", "comment must be 2000 characters or less")
	case actor.IsNil():
		return dErrors.Validation("actor", "actor is required")
	}
	return nil
}

// ApplyComment appends a COMMENT entry. Status is untouched.
func (d *Document) ApplyComment(text string, actor id.UserID, now time.Time) {
	d.History = append(d.History, HistoryEntry{
		Action:  ActionComment,
		ActorID: actor,
		Notes:   strings.TrimSpace(text),
		At:      now,
	})
}

// Clone returns a deep copy; History never aliases the original.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.ComplianceID != nil {
		v := *d.ComplianceID
		c.ComplianceID = &v
	}
	if d.VerifierID != nil {
		v := *d.VerifierID
		c.VerifierID = &v
	}
	if d.VerifiedAt != nil {
		v := *d.VerifiedAt
		c.VerifiedAt = &v
	}
	c.History = append([]HistoryEntry(nil), d.History...)
	return &c
}
