package domain

import (
	"regexp"
	"strings"

	dErrors "compliancehub/pkg/domain-errors"
)

// ComplianceTypeID identifies a catalog definition such as "gstr-3b" or
// "mgt-7". Unlike the UUID identifiers it is human-chosen, so it is a
// validated slug.
//
// Usage: construct via ParseComplianceTypeID at trust boundaries; direct
// casting bypasses validation.
type ComplianceTypeID string

var complianceTypeIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,63}$`)

// ParseComplianceTypeID normalizes to lower case and validates the slug.
//
// Errors: returns CodeValidation when the value is empty or malformed.
func ParseComplianceTypeID(s string) (ComplianceTypeID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.Validation("compliance_type_id", "compliance_type_id is required")
	}
	if !complianceTypeIDPattern.MatchString(s) {
		return "", dErrors.Validation("compliance_type_id", "compliance_type_id must be 2-64 characters of a-z, 0-9, '.', '_' or '-'")
	}
	return ComplianceTypeID(s), nil
}

// IsValid reports whether the value satisfies the slug pattern.
func (c ComplianceTypeID) IsValid() bool {
	return complianceTypeIDPattern.MatchString(string(c))
}

func (c ComplianceTypeID) String() string {
	return string(c)
}
