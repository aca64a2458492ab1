package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "compliancehub/pkg/domain"
	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/requestcontext"
)

func TestQueryNow(t *testing.T) {
	requestTime := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("falls back to request time", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithTime(req.Context(), requestTime))
		got, err := QueryNow(req)
		require.NoError(t, err)
		assert.Equal(t, requestTime, got)
	})

	t.Run("parses RFC3339 as UTC", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?now=2025-03-01T10:00:00%2B05:30", nil)
		got, err := QueryNow(req)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 4, 30, 0, 0, time.UTC), got)
	})

	t.Run("rejects malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?now=yesterday", nil)
		_, err := QueryNow(req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?window_days=7&limit=x", nil)

	n, err := QueryInt(req, "window_days", 30)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = QueryInt(req, "missing", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	_, err = QueryInt(req, "limit", 10)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := Actor(req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	user := id.NewUserID()
	req = req.WithContext(requestcontext.WithUserID(req.Context(), user))
	got, err := Actor(req)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}
