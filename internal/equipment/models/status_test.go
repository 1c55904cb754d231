package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "turfops/pkg/domain"
)

func testAsset(t *testing.T, status Status) *Asset {
	t.Helper()
	now := time.Now()
	a, err := NewAsset(id.NewAssetID(), "Mower 21", "Toro", "TimeMaster", "", "QR-21", now)
	require.NoError(t, err)
	a.Status = status
	return a
}

func openRecord(assetID id.AssetID, checkedOut bool) *CustodyRecord {
	rec := NewReservation(id.NewCustodyID(), assetID, id.UserID(uuid.New()), time.Now())
	if checkedOut {
		now := time.Now()
		rec.CheckedOutAt = &now
	}
	return rec
}

func TestProjectStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		retired    bool
		open       bool
		checkedOut bool
		want       Status
	}{
		{name: "no open record projects available", status: StatusReserved, want: StatusAvailable},
		{name: "open reservation projects reserved", status: StatusAvailable, open: true, want: StatusReserved},
		{name: "checked out record projects checked out", status: StatusReserved, open: true, checkedOut: true, want: StatusCheckedOut},
		{name: "maintenance is sticky over empty ledger", status: StatusMaintenance, want: StatusMaintenance},
		{name: "maintenance is sticky over open record", status: StatusMaintenance, open: true, want: StatusMaintenance},
		{name: "retired flag wins over everything", status: StatusAvailable, retired: true, open: true, checkedOut: true, want: StatusRetired},
		{name: "retired status wins without flag", status: StatusRetired, want: StatusRetired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAsset(t, tt.status)
			if tt.retired {
				now := time.Now()
				a.RetiredAt = &now
			}
			var open *CustodyRecord
			if tt.open {
				open = openRecord(a.ID, tt.checkedOut)
			}
			assert.Equal(t, tt.want, ProjectStatus(a, open))
		})
	}
}

func TestProjectStatusIgnoresClosedRecord(t *testing.T) {
	a := testAsset(t, StatusCheckedOut)
	rec := openRecord(a.ID, true)
	now := time.Now()
	rec.ReleasedAt = &now

	assert.Equal(t, StatusAvailable, ProjectStatus(a, rec))
}

func TestNewAssetValidation(t *testing.T) {
	now := time.Now()

	t.Run("trims and accepts metadata", func(t *testing.T) {
		a, err := NewAsset(id.NewAssetID(), "  Edger  ", " Stihl ", "", "", " qr-7 ", now)
		require.NoError(t, err)
		assert.Equal(t, "Edger", a.Name)
		assert.Equal(t, "Stihl", a.Brand)
		assert.Equal(t, "qr-7", a.QRCode)
		assert.Equal(t, StatusAvailable, a.Status)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewAsset(id.NewAssetID(), "   ", "", "", "", "", now)
		require.Error(t, err)
	})

	t.Run("rejects name over 128 chars", func(t *testing.T) {
		long := make([]byte, 129)
		for i := range long {
			long[i] = 'x'
		}
		_, err := NewAsset(id.NewAssetID(), string(long), "", "", "", "", now)
		require.Error(t, err)
	})
}

func TestRetirementRoundTrip(t *testing.T) {
	a := testAsset(t, StatusAvailable)
	now := time.Now()

	a.ApplyRetirement(now)
	assert.True(t, a.IsRetired())
	assert.Equal(t, StatusRetired, a.Status)
	require.NotNil(t, a.RetiredAt)

	a.ApplyUnretirement(now.Add(time.Minute))
	assert.False(t, a.IsRetired())
	assert.Nil(t, a.RetiredAt)
}
