// Package store holds sentinels shared by the equipment store
// implementations so services match on one error regardless of backend.
package store

import dErrors "turfops/pkg/domain-errors"

var (
	// ErrNotFound keeps store-specific 404s consistent across the in-memory
	// and PostgreSQL implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

	// ErrOpenRecordExists is returned when an insert would create a second
	// open custody record for the same asset. The engine's row lock makes
	// this unreachable in practice; the partial unique index reports it if
	// a writer ever bypasses the lock.
	ErrOpenRecordExists = dErrors.New(dErrors.CodeInvariantViolation,
		"asset already has an open custody record")
)
