// Package service implements the equipment lifecycle engine: every legal
// state transition for an asset runs through here, inside one transaction,
// under an exclusive lock on the asset row.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"turfops/internal/audit"
	equipmetrics "turfops/internal/equipment/metrics"
	"turfops/internal/equipment/models"
	id "turfops/pkg/domain"
)

// AssetStore is the persistence the engine needs for assets.
type AssetStore interface {
	Create(ctx context.Context, a *models.Asset) error
	FindByID(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	// FindByIDForUpdate must acquire an exclusive lock on the asset scoped
	// to the surrounding transaction. All lifecycle operations take this
	// lock before reading the ledger, so two operations on the same asset
	// never interleave.
	FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	UpdateStatus(ctx context.Context, a *models.Asset) error
	UpdateMetadata(ctx context.Context, a *models.Asset) error
	Delete(ctx context.Context, assetID id.AssetID) error
	List(ctx context.Context) ([]*models.Asset, error)
}

// CustodyStore is the persistence the engine needs for the custody ledger.
// All mutating calls assume the caller already holds the asset lock.
type CustodyStore interface {
	OpenFor(ctx context.Context, assetID id.AssetID) (*models.CustodyRecord, error)
	HasOpen(ctx context.Context, assetID id.AssetID) (bool, error)
	Create(ctx context.Context, rec *models.CustodyRecord) error
	MarkCheckedOut(ctx context.Context, recordID id.CustodyID, at time.Time) error
	MarkReleased(ctx context.Context, recordID id.CustodyID, at time.Time) error
	ListForAsset(ctx context.Context, assetID id.AssetID) ([]*models.CustodyRecord, error)
	DeleteClosedForAsset(ctx context.Context, assetID id.AssetID) (int64, error)
}

// Recorder appends audit events. It must write through the transaction
// carried in ctx so events commit or roll back with the mutation.
type Recorder interface {
	Record(ctx context.Context, actorID id.UserID, action audit.Action, payload any) (*audit.Event, error)
}

// StatusCache holds a best-effort fleet status snapshot. Failures are logged
// and ignored; the database remains the source of truth.
type StatusCache interface {
	SetStatus(ctx context.Context, assetID id.AssetID, status models.Status) error
	Remove(ctx context.Context, assetID id.AssetID) error
	Snapshot(ctx context.Context) (map[string]string, error)
}

// Service owns all status-affecting transitions for equipment assets.
type Service struct {
	assets  AssetStore
	custody CustodyStore
	auditor Recorder
	tx      StoreTx
	cache   StatusCache
	metrics *equipmetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type serviceConfig struct {
	tx      StoreTx
	cache   StatusCache
	metrics *equipmetrics.Metrics
	logger  *slog.Logger
}

// Option customizes Service construction.
type Option func(*serviceConfig)

// WithTx installs a transactional boundary. Defaults to the in-memory
// per-asset lock when unset, which is what unit tests want.
func WithTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

// WithStatusCache installs the fleet status snapshot cache.
func WithStatusCache(cache StatusCache) Option {
	return func(cfg *serviceConfig) { cfg.cache = cache }
}

// WithMetrics installs prometheus instrumentation.
func WithMetrics(m *equipmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

// WithLogger installs a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func New(assets AssetStore, custody CustodyStore, auditor Recorder, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = NewInMemoryTx()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		assets:  assets,
		custody: custody,
		auditor: auditor,
		tx:      cfg.tx,
		cache:   cfg.cache,
		metrics: cfg.metrics,
		logger:  cfg.logger,
		tracer:  otel.Tracer("turfops/equipment"),
	}
}

// Result is the projection returned by lifecycle operations: the updated
// asset and, when one is involved, the affected custody record.
type Result struct {
	Asset   *models.Asset         `json:"asset"`
	Custody *models.CustodyRecord `json:"custody,omitempty"`
}

// projectAndPersist recomputes the asset's status from the open custody
// record and persists it only when it changed. Safe to call redundantly.
func (s *Service) projectAndPersist(ctx context.Context, a *models.Asset, open *models.CustodyRecord, now time.Time) error {
	next := models.ProjectStatus(a, open)
	if next == a.Status {
		return nil
	}
	a.Status = next
	a.UpdatedAt = now
	return s.assets.UpdateStatus(ctx, a)
}

// observeOp records the duration of a critical-path operation.
func (s *Service) observeOp(operation string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(operation, start)
}

// cacheStatus refreshes the fleet snapshot after a committed mutation.
// Best-effort: a cache failure never fails the operation.
func (s *Service) cacheStatus(ctx context.Context, a *models.Asset) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStatus(ctx, a.ID, a.Status); err != nil {
		s.logger.WarnContext(ctx, "fleet status cache update failed",
			"asset_id", a.ID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) cacheRemove(ctx context.Context, assetID id.AssetID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remove(ctx, assetID); err != nil {
		s.logger.WarnContext(ctx, "fleet status cache removal failed",
			"asset_id", assetID.String(),
			"error", err.Error(),
		)
	}
}
