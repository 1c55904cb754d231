package models

// Status is the externally visible state of a piece of equipment.
//
// AVAILABLE, RESERVED, and CHECKED_OUT are derived from the custody ledger.
// MAINTENANCE and RETIRED are entered and exited manually and are never
// overridden by projection.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusReserved    Status = "RESERVED"
	StatusCheckedOut  Status = "CHECKED_OUT"
	StatusMaintenance Status = "MAINTENANCE"
	StatusRetired     Status = "RETIRED"
)

var validStatuses = map[Status]bool{
	StatusAvailable:   true,
	StatusReserved:    true,
	StatusCheckedOut:  true,
	StatusMaintenance: true,
	StatusRetired:     true,
}

// IsValid checks whether the status is one of the supported enum values.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) String() string {
	return string(s)
}

// ProjectStatus recomputes the status an asset should hold from its
// retirement flag, stored status, and the (at most one) open custody record.
//
// Retirement is terminal and maintenance is sticky; neither is overridden
// here. Otherwise the open record decides: checked out, reserved, or — with
// no open record — available. Pure and idempotent; callers persist the
// result only when it differs from the stored value.
func ProjectStatus(asset *Asset, open *CustodyRecord) Status {
	if asset.IsRetired() || asset.Status == StatusRetired {
		return StatusRetired
	}
	if asset.Status == StatusMaintenance {
		return StatusMaintenance
	}
	if open != nil && open.IsOpen() {
		if open.IsCheckedOut() {
			return StatusCheckedOut
		}
		return StatusReserved
	}
	return StatusAvailable
}
