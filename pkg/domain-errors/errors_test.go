package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "entity not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeInvalidTransition, "completed is terminal"))
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("matches inner coded cause", func(t *testing.T) {
		inner := New(CodeConcurrentModification, "record busy")
		err := Wrap(inner, CodeInternal, "update failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConcurrentModification))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestValidationNamesField(t *testing.T) {
	err := Validation("gstin", "gstin must be 15 characters")

	de, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, "gstin", de.Field)
	assert.Contains(t, err.Error(), "gstin must be 15 characters")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "save failed")
	assert.ErrorIs(t, err, cause)
}
