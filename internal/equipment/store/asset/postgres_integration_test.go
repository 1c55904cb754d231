//go:build integration

package asset_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"turfops/internal/equipment/models"
	"turfops/internal/equipment/store"
	"turfops/internal/equipment/store/asset"
	id "turfops/pkg/domain"
	"turfops/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *asset.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = asset.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) newAsset(name string) *models.Asset {
	a, err := models.NewAsset(id.NewAssetID(), name, "Toro", "TimeMaster", "21in mower", "QR-"+name, time.Now().UTC())
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	a := s.newAsset("Mower 1")
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal(a.Name, found.Name)
	s.Equal(a.QRCode, found.QRCode)
	s.Equal(models.StatusAvailable, found.Status)
	s.Nil(found.RetiredAt)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewAssetID())
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateStatusPersistsRetirement() {
	ctx := context.Background()
	a := s.newAsset("Mower 2")
	s.Require().NoError(s.store.Create(ctx, a))

	a.ApplyRetirement(time.Now().UTC())
	s.Require().NoError(s.store.UpdateStatus(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRetired, found.Status)
	s.NotNil(found.RetiredAt)
}

func (s *PostgresStoreSuite) TestUpdateMetadataLeavesStatusAlone() {
	ctx := context.Background()
	a := s.newAsset("Mower 3")
	s.Require().NoError(s.store.Create(ctx, a))

	a.Status = models.StatusMaintenance // not persisted by UpdateMetadata
	a.Name = "Mower 3B"
	a.QRCode = ""
	s.Require().NoError(s.store.UpdateMetadata(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Mower 3B", found.Name)
	s.Empty(found.QRCode)
	s.Equal(models.StatusAvailable, found.Status)
}

func (s *PostgresStoreSuite) TestDeleteAndList() {
	ctx := context.Background()
	a := s.newAsset("Mower 4")
	b := s.newAsset("Mower 5")
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	assets, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(assets, 2)

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	s.Require().ErrorIs(s.store.Delete(ctx, a.ID), store.ErrNotFound)

	assets, err = s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(assets, 1)
}
