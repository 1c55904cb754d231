package service

import "turfops/internal/equipment/models"

// Audit payload shapes, one per verb. Stored as opaque JSON; the closed set
// here keeps metadata consistent without a storage-side schema.

type createdPayload struct {
	Asset *models.Asset `json:"asset"`
}

type updatedPayload struct {
	Asset *models.Asset `json:"asset"`
}

type reservedPayload struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody"`
}

type reservationCancelledPayload struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody"`
}

type checkedOutPayload struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody"`
}

type returnedPayload struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody"`
}

type forceReleasedPayload struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody"`
}

type maintenanceStartedPayload struct {
	Asset *models.Asset `json:"asset"`
}

type maintenanceEndedPayload struct {
	Asset *models.Asset `json:"asset"`
}

type retiredPayload struct {
	Asset *models.Asset `json:"asset"`
}

type unretiredPayload struct {
	Asset *models.Asset `json:"asset"`
}

type deletedPayload struct {
	AssetID        string `json:"asset_id"`
	RemovedRecords int64  `json:"removed_records"`
}
