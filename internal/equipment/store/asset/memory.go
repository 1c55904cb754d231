package asset

import (
	"context"
	"sync"

	"turfops/internal/equipment/models"
	"turfops/internal/equipment/store"
	id "turfops/pkg/domain"
)

// InMemoryStore keeps assets in a map for unit tests. Mutual exclusion per
// asset comes from the in-memory StoreTx, mirroring how the PostgreSQL
// store relies on the row lock rather than its own synchronization.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[id.AssetID]*models.Asset
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{assets: make(map[id.AssetID]*models.Asset)}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assets[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, assetID id.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[assetID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// FindByIDForUpdate behaves like FindByID; the per-asset lock is already
// held by the in-memory transaction boundary.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	return s.FindByID(ctx, assetID)
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assets[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Status = a.Status
	existing.RetiredAt = a.RetiredAt
	existing.UpdatedAt = a.UpdatedAt
	return nil
}

func (s *InMemoryStore) UpdateMetadata(_ context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assets[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name = a.Name
	existing.Brand = a.Brand
	existing.Model = a.Model
	existing.Description = a.Description
	existing.QRCode = a.QRCode
	existing.UpdatedAt = a.UpdatedAt
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, assetID id.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[assetID]; !ok {
		return store.ErrNotFound
	}
	delete(s.assets, assetID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
