// Package dedupe records which one-shot notifications have already been
// emitted so repeated deadline scans stay idempotent.
//
// Marks expire on the scan clock: callers pass the instant the scan runs at,
// so a backfilled scan dedupes against the same timeline it evaluates
// deadlines on.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// InMemory keeps dedupe marks in process. Marks expire ttl after the scan
// instant that set them; zero ttl keeps them forever.
type InMemory struct {
	mu    sync.Mutex
	marks map[string]time.Time
	ttl   time.Duration
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		marks: make(map[string]time.Time),
		ttl:   ttl,
	}
}

// Mark sets key if absent or expired at now and reports whether this call
// set it.
func (m *InMemory) Mark(_ context.Context, key string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, ok := m.marks[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if m.ttl > 0 {
		exp = now.Add(m.ttl)
	}
	m.marks[key] = exp
	return true, nil
}

// Release removes key so a failed emission can be retried.
func (m *InMemory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.marks, key)
	return nil
}
