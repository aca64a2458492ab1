package blob

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/pkg/platform/sentinel"
)

func TestInMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()

	require.NoError(t, m.Put(ctx, "entities/a/documents/b/r.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf"))

	rc, err := m.Get(ctx, "entities/a/documents/b/r.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryRejectsSizeMismatch(t *testing.T) {
	err := NewInMemory().Put(context.Background(), "k", bytes.NewReader([]byte("abc")), 5, "text/plain")
	assert.Error(t, err)
}

func TestInMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	require.NoError(t, m.Put(ctx, "k", bytes.NewReader([]byte("abc")), 3, "text/plain"))

	require.NoError(t, m.Delete(ctx, "k"))
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.NoError(t, m.Delete(ctx, "k"), "deleting a missing key")
}
