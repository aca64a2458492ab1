package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "compliancehub/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEntityID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseEntityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEntityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseEntityID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, EntityID(validUUID), id)
	})
}

// TestParseID_TrustBoundary validates parsing rules at API entry points.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE entities;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComplianceID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types have identical parsing behavior.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errEntity := ParseEntityID(validUUID)
		_, errCompliance := ParseComplianceID(validUUID)
		_, errDocument := ParseDocumentID(validUUID)
		_, errNotification := ParseNotificationID(validUUID)
		_, errUser := ParseUserID(validUUID)

		require.NoError(t, errEntity)
		require.NoError(t, errCompliance)
		require.NoError(t, errDocument)
		require.NoError(t, errNotification)
		require.NoError(t, errUser)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errEntity := ParseEntityID(input)
			_, errCompliance := ParseComplianceID(input)
			_, errDocument := ParseDocumentID(input)
			_, errNotification := ParseNotificationID(input)
			_, errUser := ParseUserID(input)

			require.Error(t, errEntity)
			require.Error(t, errCompliance)
			require.Error(t, errDocument)
			require.Error(t, errNotification)
			require.Error(t, errUser)
		})
	}
}

func TestIDsMarshalAsStrings(t *testing.T) {
	type payload struct {
		EntityID     EntityID      `json:"entity_id"`
		ComplianceID *ComplianceID `json:"compliance_id,omitempty"`
	}
	entityID := NewEntityID()
	complianceID := NewComplianceID()

	raw, err := json.Marshal(payload{EntityID: entityID, ComplianceID: &complianceID})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"entity_id":"`+entityID.String()+`"`)

	var decoded payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, entityID, decoded.EntityID)
	require.NotNil(t, decoded.ComplianceID)
	assert.Equal(t, complianceID, *decoded.ComplianceID)

	t.Run("rejects malformed id in payload", func(t *testing.T) {
		err := json.Unmarshal([]byte(`{"entity_id":"nope"}`), &decoded)
		require.Error(t, err)
	})
}

func TestParseComplianceTypeID(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		id, err := ParseComplianceTypeID("  GSTR-3B ")
		require.NoError(t, err)
		assert.Equal(t, ComplianceTypeID("gstr-3b"), id)
	})

	t.Run("rejects malformed slugs", func(t *testing.T) {
		for _, input := range []string{"", "a", "-leading", "has space", strings.Repeat("x", 65)} {
			_, err := ParseComplianceTypeID(input)
			require.Error(t, err, input)
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "compliance_type_id", de.Field)
		}
	})
}
