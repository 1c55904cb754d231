package models

import (
	"strings"
	"time"

	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
)

// Asset is the aggregate root for a trackable piece of equipment.
//
// Invariants:
//   - Status is always one of the five Status values
//   - RetiredAt is non-nil iff Status is RETIRED
//   - At most one open custody record exists per asset (enforced by the
//     lifecycle service under the asset row lock)
//
// Status-affecting fields (Status, RetiredAt) are owned exclusively by the
// lifecycle service. Descriptive metadata may be updated via ordinary CRUD.
type Asset struct {
	ID          id.AssetID `json:"id"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand,omitempty"`
	Model       string     `json:"model,omitempty"`
	Description string     `json:"description,omitempty"`
	// QRCode is the printed identifier scanned to prove physical presence
	// before checkout and return. Optional; never used as an identity key.
	QRCode    string     `json:"qr_code,omitempty"`
	Status    Status     `json:"status"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewAsset constructs an available asset with validated metadata.
func NewAsset(assetID id.AssetID, name, brand, model, description, qrCode string, now time.Time) (*Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset name must be 128 characters or less")
	}
	return &Asset{
		ID:          assetID,
		Name:        name,
		Brand:       strings.TrimSpace(brand),
		Model:       strings.TrimSpace(model),
		Description: strings.TrimSpace(description),
		QRCode:      strings.TrimSpace(qrCode),
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsRetired reports whether the asset has been taken out of service.
func (a *Asset) IsRetired() bool {
	return a.RetiredAt != nil
}

// ApplyRetirement marks the asset retired. Callers must have verified no
// open custody record exists.
func (a *Asset) ApplyRetirement(now time.Time) {
	a.Status = StatusRetired
	a.RetiredAt = &now
	a.UpdatedAt = now
}

// ApplyUnretirement clears the retirement flag. The resulting status must be
// re-projected from the custody ledger by the caller.
func (a *Asset) ApplyUnretirement(now time.Time) {
	a.RetiredAt = nil
	a.Status = StatusAvailable
	a.UpdatedAt = now
}
