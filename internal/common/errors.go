// Package common defines shared constants and sentinel errors used across
// client and server layers of Notico. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Sync cycle errors. Both mean "the cycle did not run"; the outbox and
	// the watermark are untouched.
	ErrSyncInFlight = errors.New("sync already in flight")
	ErrOffline      = errors.New("network unavailable")

	// Validation errors.
	ErrorInvalidEntity = errors.New("invalid entity")
)
