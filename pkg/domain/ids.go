// Package domain defines the typed identifiers shared across features.
// Wrapping uuid.UUID in distinct types keeps an asset ID from ever being
// passed where a user ID belongs.
package domain

import (
	"github.com/google/uuid"

	dErrors "turfops/pkg/domain-errors"
)

type (
	// AssetID identifies an equipment asset.
	AssetID uuid.UUID
	// UserID identifies a worker or admin actor.
	UserID uuid.UUID
	// CustodyID identifies a custody ledger record.
	CustodyID uuid.UUID
	// EventID identifies an audit event.
	EventID uuid.UUID
)

func NewAssetID() AssetID     { return AssetID(uuid.New()) }
func NewCustodyID() CustodyID { return CustodyID(uuid.New()) }
func NewEventID() EventID     { return EventID(uuid.New()) }

func (id AssetID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id CustodyID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string   { return uuid.UUID(id).String() }

func (id AssetID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CustodyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshaling renders IDs in canonical UUID form so JSON payloads carry
// strings, not byte arrays.

func (id AssetID) MarshalText() ([]byte, error)   { return []byte(uuid.UUID(id).String()), nil }
func (id UserID) MarshalText() ([]byte, error)    { return []byte(uuid.UUID(id).String()), nil }
func (id CustodyID) MarshalText() ([]byte, error) { return []byte(uuid.UUID(id).String()), nil }
func (id EventID) MarshalText() ([]byte, error)   { return []byte(uuid.UUID(id).String()), nil }

func (id *AssetID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid asset id")
	}
	*id = AssetID(u)
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	*id = UserID(u)
	return nil
}

func (id *CustodyID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid custody id")
	}
	*id = CustodyID(u)
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid event id")
	}
	*id = EventID(u)
	return nil
}

// ParseAssetID parses an asset ID from its string form.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset id")
	return AssetID(u), err
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseCustodyID parses a custody record ID from its string form.
func ParseCustodyID(s string) (CustodyID, error) {
	u, err := parseUUID(s, "custody id")
	return CustodyID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return u, nil
}
