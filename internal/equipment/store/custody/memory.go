package custody

import (
	"context"
	"sync"
	"time"

	"turfops/internal/equipment/models"
	"turfops/internal/equipment/store"
	id "turfops/pkg/domain"
)

// InMemoryStore keeps custody records in a map for unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CustodyID]*models.CustodyRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CustodyID]*models.CustodyRecord)}
}

func (s *InMemoryStore) OpenFor(_ context.Context, assetID id.AssetID) (*models.CustodyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.AssetID == assetID && rec.IsOpen() {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) HasOpen(ctx context.Context, assetID id.AssetID) (bool, error) {
	rec, err := s.OpenFor(ctx, assetID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.CustodyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.AssetID == rec.AssetID && existing.IsOpen() {
			return store.ErrOpenRecordExists
		}
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *InMemoryStore) MarkCheckedOut(_ context.Context, recordID id.CustodyID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok || !rec.IsOpen() || rec.IsCheckedOut() {
		return store.ErrNotFound
	}
	t := at
	rec.CheckedOutAt = &t
	return nil
}

func (s *InMemoryStore) MarkReleased(_ context.Context, recordID id.CustodyID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok || !rec.IsOpen() {
		return store.ErrNotFound
	}
	t := at
	rec.ReleasedAt = &t
	return nil
}

func (s *InMemoryStore) ListForAsset(_ context.Context, assetID id.AssetID) ([]*models.CustodyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CustodyRecord
	for _, rec := range s.records {
		if rec.AssetID == assetID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteClosedForAsset(_ context.Context, assetID id.AssetID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for recID, rec := range s.records {
		if rec.AssetID == assetID && !rec.IsOpen() {
			delete(s.records, recID)
			n++
		}
	}
	return n, nil
}
