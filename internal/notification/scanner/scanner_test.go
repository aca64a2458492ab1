package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliancehub/internal/notification/models"
)

type countingScanner struct {
	mu      sync.Mutex
	calls   []time.Time
	windows []int
	err     error
	enough  chan struct{}
	want    int
}

func (c *countingScanner) ScanDeadlines(_ context.Context, now time.Time, windowDays int) (models.ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	c.windows = append(c.windows, windowDays)
	if len(c.calls) == c.want {
		close(c.enough)
	}
	return models.ScanResult{Scanned: 1}, c.err
}

func TestWorkerScansImmediatelyAndOnTick(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	sc := &countingScanner{enough: make(chan struct{}), want: 3, err: errors.New("transient")}
	w := NewWorker(sc, 5*time.Millisecond, 7, WithClock(func() time.Time { return fixed }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-sc.enough:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not keep scanning after failures")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	assert.Equal(t, fixed, sc.calls[0])
	assert.Equal(t, 7, sc.windows[0])
}
