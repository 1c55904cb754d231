package models

import (
	"time"

	id "turfops/pkg/domain"
)

// CustodyRecord links an asset to the user holding (or about to hold) it.
//
// Lifecycle: created on reserve with ReservedAt set; checkout sets
// CheckedOutAt; return, cancel, or forced release sets ReleasedAt, closing
// the record permanently. Closed records are history and are never reopened.
//
// Invariant: at most one record per asset has ReleasedAt == nil at any time.
type CustodyRecord struct {
	ID           id.CustodyID `json:"id"`
	AssetID      id.AssetID   `json:"asset_id"`
	UserID       id.UserID    `json:"user_id"`
	ReservedAt   time.Time    `json:"reserved_at"`
	CheckedOutAt *time.Time   `json:"checked_out_at,omitempty"`
	ReleasedAt   *time.Time   `json:"released_at,omitempty"`
}

// NewReservation opens a custody record for a pending pickup.
func NewReservation(recordID id.CustodyID, assetID id.AssetID, userID id.UserID, now time.Time) *CustodyRecord {
	return &CustodyRecord{
		ID:         recordID,
		AssetID:    assetID,
		UserID:     userID,
		ReservedAt: now,
	}
}

// IsOpen reports whether the record represents current possession or a
// pending pickup.
func (c *CustodyRecord) IsOpen() bool {
	return c.ReleasedAt == nil
}

// IsCheckedOut reports whether the equipment has been physically picked up.
func (c *CustodyRecord) IsCheckedOut() bool {
	return c.CheckedOutAt != nil
}

// OwnedBy reports whether the record belongs to the given user. Ownership is
// checked against the caller-supplied user, not the audit actor; an admin may
// act on a worker's behalf without owning the record.
func (c *CustodyRecord) OwnedBy(userID id.UserID) bool {
	return c.UserID == userID
}
