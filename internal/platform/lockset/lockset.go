// Package lockset serializes writers per record key without a global lock.
//
// Keys hash onto a fixed array of mutex shards with FNV-1a. Acquisition uses
// TryLock with a bounded retry budget so a stuck writer surfaces as
// sentinel.ErrLockTimeout instead of an unbounded wait.
package lockset

import (
	"context"
	"sync"
	"time"

	dErrors "compliancehub/pkg/domain-errors"
	"compliancehub/pkg/platform/sentinel"
)

const numShards = 128

// Budget bounds lock acquisition attempts.
type Budget struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultBudget is used when a zero Budget is supplied.
var DefaultBudget = Budget{Attempts: 20, Backoff: 5 * time.Millisecond}

func (b Budget) normalized() Budget {
	if b.Attempts <= 0 {
		b.Attempts = DefaultBudget.Attempts
	}
	if b.Backoff <= 0 {
		b.Backoff = DefaultBudget.Backoff
	}
	return b
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or the
// budget runs out. Exhaustion returns sentinel.ErrLockTimeout.
func (b Budget) Retry(ctx context.Context, retryable func(error) bool, fn func() error) error {
	b = b.normalized()
	var err error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if werr := wait(ctx, b.Backoff); werr != nil {
			return werr
		}
	}
	return sentinel.ErrLockTimeout
}

// Set is a sharded mutex keyed by string.
type Set struct {
	shards [numShards]sync.Mutex
	budget Budget
}

// New creates a Set with the given acquisition budget.
func New(budget Budget) *Set {
	return &Set{budget: budget.normalized()}
}

// Acquire locks the shard owning key. The returned release must be called
// exactly once.
func (s *Set) Acquire(ctx context.Context, key string) (func(), error) {
	mu := &s.shards[hash(key)%numShards]
	for attempt := 0; attempt < s.budget.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
		}
		if mu.TryLock() {
			return mu.Unlock, nil
		}
		if err := wait(ctx, s.budget.Backoff); err != nil {
			return nil, err
		}
	}
	return nil, sentinel.ErrLockTimeout
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock aborted: context cancelled")
	case <-t.C:
		return nil
	}
}

// hash is FNV-1a.
func hash(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
