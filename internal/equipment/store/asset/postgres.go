package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"turfops/internal/equipment/models"
	"turfops/internal/equipment/store"
	id "turfops/pkg/domain"
	txcontext "turfops/pkg/platform/tx"
)

const assetColumns = `id, name, brand, model, description, qr_code, status, retired_at, created_at, updated_at`

// PostgresStore persists equipment assets in PostgreSQL. This store is pure
// I/O; transition legality lives in the lifecycle service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO equipment_assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Name, a.Brand, a.Model, a.Description,
		nullableString(a.QRCode), string(a.Status), a.RetiredAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM equipment_assets WHERE id = $1`
	a, err := scanAsset(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(assetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return a, nil
}

// FindByIDForUpdate loads the asset under an exclusive row lock. Must run
// inside a transaction carried in ctx; the lock is held until that
// transaction commits or rolls back, serializing all lifecycle operations
// against the same asset.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM equipment_assets WHERE id = $1 FOR UPDATE`
	a, err := scanAsset(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(assetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find asset for update: %w", err)
	}
	return a, nil
}

// UpdateStatus persists the status-affecting fields owned by the lifecycle
// service.
func (s *PostgresStore) UpdateStatus(ctx context.Context, a *models.Asset) error {
	query := `
		UPDATE equipment_assets
		SET status = $2, retired_at = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), string(a.Status), a.RetiredAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update asset status: %w", err)
	}
	return requireRowAffected(res)
}

// UpdateMetadata persists descriptive fields. Status and retirement are
// untouched so ordinary CRUD can never move the state machine.
func (s *PostgresStore) UpdateMetadata(ctx context.Context, a *models.Asset) error {
	query := `
		UPDATE equipment_assets
		SET name = $2, brand = $3, model = $4, description = $5, qr_code = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Name, a.Brand, a.Model, a.Description,
		nullableString(a.QRCode), a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update asset metadata: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, assetID id.AssetID) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM equipment_assets WHERE id = $1`, uuid.UUID(assetID))
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM equipment_assets ORDER BY created_at`
	rows, err := s.querier(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a, err := scanAssetRows(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var (
		a         models.Asset
		assetID   uuid.UUID
		qrCode    sql.NullString
		status    string
		retiredAt sql.NullTime
	)
	err := row.Scan(&assetID, &a.Name, &a.Brand, &a.Model, &a.Description,
		&qrCode, &status, &retiredAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = id.AssetID(assetID)
	a.QRCode = qrCode.String
	a.Status = models.Status(status)
	if retiredAt.Valid {
		t := retiredAt.Time
		a.RetiredAt = &t
	}
	return &a, nil
}

func scanAssetRows(rows *sql.Rows) (*models.Asset, error) {
	a, err := scanAsset(rows)
	if err != nil {
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	return a, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
