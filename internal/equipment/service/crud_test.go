package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"turfops/internal/audit"
	auditmemory "turfops/internal/audit/store/memory"
	"turfops/internal/equipment/models"
	assetstore "turfops/internal/equipment/store/asset"
	custodystore "turfops/internal/equipment/store/custody"
	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
	"turfops/pkg/requestcontext"
)

type CRUDSuite struct {
	suite.Suite
	svc      *Service
	auditLog *auditmemory.InMemoryStore
	ctx      context.Context
	worker   id.UserID
}

func (s *CRUDSuite) SetupTest() {
	s.auditLog = auditmemory.NewInMemoryStore()
	s.svc = New(assetstore.NewInMemory(), custodystore.NewInMemory(), audit.NewRecorder(s.auditLog))
	s.worker = id.UserID(uuid.New())
	s.ctx = requestcontext.WithActorID(context.Background(), s.worker)
}

func TestCRUDSuite(t *testing.T) {
	suite.Run(t, new(CRUDSuite))
}

func (s *CRUDSuite) TestCreateAsset() {
	a, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{
		Name:   "Blower 3",
		Brand:  "Echo",
		QRCode: "QR-B3",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusAvailable, a.Status)
	s.False(a.ID.IsNil())

	events := s.auditLog.All()
	s.Require().Len(events, 1)
	s.Equal(audit.VerbCreated, events[0].Verb)
	s.Equal("EQUIPMENT.CREATED", events[0].Action)
	s.Equal(s.worker, events[0].ActorID)
}

func (s *CRUDSuite) TestCreateAssetRejectsBlankName() {
	_, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{Name: "   "})
	s.Require().Error(err)
	s.Empty(s.auditLog.All())
}

func (s *CRUDSuite) TestUpdateAsset() {
	a, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{Name: "Blower 3"})
	s.Require().NoError(err)
	s.auditLog.Clear()

	name := "Blower 3B"
	qr := "QR-B3B"
	updated, err := s.svc.UpdateAsset(s.ctx, a.ID, UpdateAssetParams{Name: &name, QRCode: &qr})
	s.Require().NoError(err)
	s.Equal("Blower 3B", updated.Name)
	s.Equal("QR-B3B", updated.QRCode)
	s.Equal(models.StatusAvailable, updated.Status)

	events := s.auditLog.All()
	s.Require().Len(events, 1)
	s.Equal(audit.VerbUpdated, events[0].Verb)

	s.Run("empty name is rejected", func() {
		blank := " "
		_, err := s.svc.UpdateAsset(s.ctx, a.ID, UpdateAssetParams{Name: &blank})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown asset is not found", func() {
		_, err := s.svc.UpdateAsset(s.ctx, id.NewAssetID(), UpdateAssetParams{Name: &name})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CRUDSuite) TestHistory() {
	a, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{Name: "Trimmer", QRCode: "QR-T"})
	s.Require().NoError(err)

	_, err = s.svc.Reserve(s.ctx, a.ID, s.worker)
	s.Require().NoError(err)
	_, err = s.svc.CancelReservation(s.ctx, a.ID, s.worker)
	s.Require().NoError(err)
	_, err = s.svc.Reserve(s.ctx, a.ID, s.worker)
	s.Require().NoError(err)

	records, err := s.svc.History(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Len(records, 2)

	_, err = s.svc.History(s.ctx, id.NewAssetID())
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CRUDSuite) TestFleetStatusWithoutCache() {
	a, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{Name: "Mower"})
	s.Require().NoError(err)
	b, err := s.svc.CreateAsset(s.ctx, CreateAssetParams{Name: "Edger", QRCode: "QR-E"})
	s.Require().NoError(err)

	_, err = s.svc.Reserve(s.ctx, b.ID, s.worker)
	s.Require().NoError(err)

	snapshot, err := s.svc.FleetStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(string(models.StatusAvailable), snapshot[a.ID.String()])
	s.Equal(string(models.StatusReserved), snapshot[b.ID.String()])
}
