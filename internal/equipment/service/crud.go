package service

import (
	"context"
	"strings"

	"turfops/internal/audit"
	"turfops/internal/equipment/models"
	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
	"turfops/pkg/requestcontext"
)

// CreateAssetParams carries the descriptive fields for a new asset.
type CreateAssetParams struct {
	Name        string
	Brand       string
	Model       string
	Description string
	QRCode      string
}

// CreateAsset registers a new piece of equipment, available immediately.
func (s *Service) CreateAsset(ctx context.Context, params CreateAssetParams) (*models.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.create_asset")
	defer span.End()

	assetID := id.NewAssetID()
	var asset *models.Asset
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := models.NewAsset(assetID, params.Name, params.Brand, params.Model,
			params.Description, params.QRCode, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.assets.Create(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbCreated},
			createdPayload{Asset: a})
		if err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheStatus(ctx, asset)
	return asset, nil
}

// UpdateAssetParams carries optional descriptive updates. Nil fields are
// left unchanged. Status and retirement cannot be set here; those belong to
// the lifecycle operations.
type UpdateAssetParams struct {
	Name        *string
	Brand       *string
	Model       *string
	Description *string
	QRCode      *string
}

// UpdateAsset applies descriptive metadata changes under the asset lock so
// the update and its audit event commit together.
func (s *Service) UpdateAsset(ctx context.Context, assetID id.AssetID, params UpdateAssetParams) (*models.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.update_asset")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var asset *models.Asset
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if params.Name != nil {
			name := strings.TrimSpace(*params.Name)
			if name == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "asset name cannot be empty")
			}
			a.Name = name
		}
		if params.Brand != nil {
			a.Brand = strings.TrimSpace(*params.Brand)
		}
		if params.Model != nil {
			a.Model = strings.TrimSpace(*params.Model)
		}
		if params.Description != nil {
			a.Description = strings.TrimSpace(*params.Description)
		}
		if params.QRCode != nil {
			a.QRCode = strings.TrimSpace(*params.QRCode)
		}
		a.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.assets.UpdateMetadata(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbUpdated},
			updatedPayload{Asset: a})
		if err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset returns the asset together with its open custody record, if any.
// Read-only; writes no audit event.
func (s *Service) GetAsset(ctx context.Context, assetID id.AssetID) (*Result, error) {
	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	a, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	open, err := s.custody.OpenFor(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return &Result{Asset: a, Custody: open}, nil
}

// ListAssets returns the whole fleet.
func (s *Service) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	return s.assets.List(ctx)
}

// History returns the asset's full custody ledger, open record included.
func (s *Service) History(ctx context.Context, assetID id.AssetID) ([]*models.CustodyRecord, error) {
	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	if _, err := s.assets.FindByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.custody.ListForAsset(ctx, assetID)
}

// FleetStatus returns a status-by-asset snapshot for the dashboard. Served
// from the cache when warm; recomputed from the store and backfilled on a
// miss. The store remains the source of truth either way.
func (s *Service) FleetStatus(ctx context.Context) (map[string]string, error) {
	if s.cache != nil {
		snapshot, err := s.cache.Snapshot(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "fleet status cache read failed", "error", err.Error())
		} else if len(snapshot) > 0 {
			return snapshot, nil
		}
	}

	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]string, len(assets))
	for _, a := range assets {
		snapshot[a.ID.String()] = string(a.Status)
		s.cacheStatus(ctx, a)
	}
	return snapshot, nil
}
