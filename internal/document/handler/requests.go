package handler

import (
	"encoding/base64"
	"strings"

	"compliancehub/internal/document/models"
	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
)

// UploadRequest is the JSON form of POST /v1/documents. Content is
// optional and base64 encoded; larger files use multipart/form-data.
type UploadRequest struct {
	EntityID      string `json:"entity_id"`
	ComplianceID  string `json:"compliance_id,omitempty"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	ContentBase64 string `json:"content_base64,omitempty"`

	entityID     id.EntityID
	complianceID *id.ComplianceID
	content      []byte
}

func (r *UploadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.entityID, r.complianceID, err = parseTargets(r.EntityID, r.ComplianceID); err != nil {
		return err
	}
	if r.ContentBase64 != "" {
		r.content, err = base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			return dErrors.Validation("content_base64", "content must be standard base64")
		}
	}
	return nil
}

func (r *UploadRequest) file() models.File {
	return models.File{Name: r.FileName, ContentType: r.ContentType, Size: r.Size}
}

func parseTargets(rawEntity, rawCompliance string) (id.EntityID, *id.ComplianceID, error) {
	entityID, err := id.ParseEntityID(rawEntity)
	if err != nil {
		return id.EntityID{}, nil, err
	}
	if strings.TrimSpace(rawCompliance) == "" {
		return entityID, nil, nil
	}
	complianceID, err := id.ParseComplianceID(rawCompliance)
	if err != nil {
		return id.EntityID{}, nil, err
	}
	return entityID, &complianceID, nil
}

// VerifyRequest is the body of POST /v1/documents/{id}/verify. The
// verifier is the authenticated actor.
type VerifyRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`

	status models.Status
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	st, err := models.ParseDecisionStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = st
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

// CommentRequest is the body of POST /v1/documents/{id}/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

func (r *CommentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return dErrors.Validation("text", "comment text is required")
	}
	return nil
}
