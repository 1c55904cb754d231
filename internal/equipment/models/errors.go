package models

import dErrors "turfops/pkg/domain-errors"

// Stable machine reasons for lifecycle failures. Clients branch on these;
// the accompanying messages are free to change.
const (
	ReasonRetired               = "RETIRED"
	ReasonNotAvailable          = "NOT_AVAILABLE"
	ReasonAlreadyInUse          = "ALREADY_IN_USE"
	ReasonNoActiveReservation   = "NO_ACTIVE_RESERVATION"
	ReasonNotOwner              = "NOT_OWNER"
	ReasonNotAllowed            = "NOT_ALLOWED"
	ReasonNoQR                  = "NO_QR"
	ReasonQRMismatch            = "QR_MISMATCH"
	ReasonInvalidInput          = "INVALID_INPUT"
	ReasonActiveCheckoutExists  = "ACTIVE_CHECKOUT_EXISTS"
	ReasonCannotRetireWhileUsed = "CANNOT_RETIRE_WHILE_IN_USE"
	ReasonNotRetired            = "NOT_RETIRED"
)

var (
	ErrRetired = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonRetired, "equipment is retired")
	ErrNotAvailable = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonNotAvailable, "equipment is not available")
	ErrAlreadyInUse = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonAlreadyInUse, "equipment is already reserved or checked out")
	ErrNoActiveReservation = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonNoActiveReservation, "no active reservation for this equipment")
	ErrNotOwner = dErrors.NewWithReason(dErrors.CodeForbidden,
		ReasonNotOwner, "reservation belongs to another user")
	ErrNotAllowed = dErrors.NewWithReason(dErrors.CodeForbidden,
		ReasonNotAllowed, "no matching reservation for this user")
	ErrNoQR = dErrors.NewWithReason(dErrors.CodeForbidden,
		ReasonNoQR, "equipment has no QR code assigned")
	ErrQRMismatch = dErrors.NewWithReason(dErrors.CodeForbidden,
		ReasonQRMismatch, "QR code does not match this equipment")
	ErrMissingCode = dErrors.NewWithReason(dErrors.CodeInvalidInput,
		ReasonInvalidInput, "QR code is required")
	ErrActiveCheckoutExists = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonActiveCheckoutExists, "equipment has an active reservation or checkout")
	ErrCannotRetireWhileInUse = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonCannotRetireWhileUsed, "equipment cannot be retired while reserved or checked out")
	ErrNotRetired = dErrors.NewWithReason(dErrors.CodeConflict,
		ReasonNotRetired, "equipment must be retired before it can be deleted")
)
