package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: row or snapshot does not exist
//   - ErrConflict: a uniqueness or reference rule rejected the write
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrLockTimeout: the per-record lock could not be acquired within budget
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrLockTimeout  = errors.New("lock timeout")
	ErrUnavailable  = errors.New("unavailable")
)
