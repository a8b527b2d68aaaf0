package model

import "errors"

// Store error classes. A store failure is never interpreted as an admission
// decision; callers must surface it as a server error.
var (
	// ErrStoreMisconfigured means required store connection settings are absent.
	ErrStoreMisconfigured = errors.New("counter store is not configured")

	// ErrStoreUnavailable means the store could not be reached or returned a
	// transport/protocol error.
	ErrStoreUnavailable = errors.New("counter store is unavailable")
)
