package custody

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"turfops/internal/equipment/models"
	"turfops/internal/equipment/store"
	id "turfops/pkg/domain"
	txcontext "turfops/pkg/platform/tx"
)

const custodyColumns = `id, asset_id, user_id, reserved_at, checked_out_at, released_at`

// PostgresStore persists custody records. Callers hold the asset row lock
// before writing here, so the table needs no locking of its own; the partial
// unique index on (asset_id) WHERE released_at IS NULL is the backstop for
// the single-open-record invariant.
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

// OpenFor returns the single open record for the asset, or nil when none
// exists.
func (s *PostgresStore) OpenFor(ctx context.Context, assetID id.AssetID) (*models.CustodyRecord, error) {
	query := `
		SELECT ` + custodyColumns + `
		FROM custody_records
		WHERE asset_id = $1 AND released_at IS NULL
	`
	rec, err := scanRecord(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(assetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open custody record: %w", err)
	}
	return rec, nil
}

// HasOpen reports whether any open record exists for the asset.
func (s *PostgresStore) HasOpen(ctx context.Context, assetID id.AssetID) (bool, error) {
	var count int
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM custody_records WHERE asset_id = $1 AND released_at IS NULL`,
		uuid.UUID(assetID)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count open custody records: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.CustodyRecord) error {
	query := `
		INSERT INTO custody_records (` + custodyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID), uuid.UUID(rec.AssetID), uuid.UUID(rec.UserID),
		rec.ReservedAt, rec.CheckedOutAt, rec.ReleasedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.ErrOpenRecordExists
		}
		return fmt.Errorf("insert custody record: %w", err)
	}
	return nil
}

// MarkCheckedOut stamps the record as physically picked up. Fails when the
// record is no longer open or was already checked out, so a stale caller
// cannot re-stamp history.
func (s *PostgresStore) MarkCheckedOut(ctx context.Context, recordID id.CustodyID, at time.Time) error {
	query := `
		UPDATE custody_records
		SET checked_out_at = $2
		WHERE id = $1 AND released_at IS NULL AND checked_out_at IS NULL
	`
	res, err := s.querier(ctx).ExecContext(ctx, query, uuid.UUID(recordID), at)
	if err != nil {
		return fmt.Errorf("mark custody record checked out: %w", err)
	}
	return requireRowAffected(res)
}

// MarkReleased closes the record. Terminal; released records never reopen.
func (s *PostgresStore) MarkReleased(ctx context.Context, recordID id.CustodyID, at time.Time) error {
	query := `
		UPDATE custody_records
		SET released_at = $2
		WHERE id = $1 AND released_at IS NULL
	`
	res, err := s.querier(ctx).ExecContext(ctx, query, uuid.UUID(recordID), at)
	if err != nil {
		return fmt.Errorf("mark custody record released: %w", err)
	}
	return requireRowAffected(res)
}

// ListForAsset returns the asset's full custody history, newest first.
func (s *PostgresStore) ListForAsset(ctx context.Context, assetID id.AssetID) ([]*models.CustodyRecord, error) {
	query := `
		SELECT ` + custodyColumns + `
		FROM custody_records
		WHERE asset_id = $1
		ORDER BY reserved_at DESC
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, uuid.UUID(assetID))
	if err != nil {
		return nil, fmt.Errorf("list custody records: %w", err)
	}
	defer rows.Close()

	var records []*models.CustodyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custody record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custody records: %w", err)
	}
	return records, nil
}

// DeleteClosedForAsset removes the asset's closed custody history ahead of a
// hard delete. The caller has already verified no open record exists; the
// released_at guard keeps an open record from being swept by mistake.
func (s *PostgresStore) DeleteClosedForAsset(ctx context.Context, assetID id.AssetID) (int64, error) {
	res, err := s.querier(ctx).ExecContext(ctx,
		`DELETE FROM custody_records WHERE asset_id = $1 AND released_at IS NOT NULL`,
		uuid.UUID(assetID))
	if err != nil {
		return 0, fmt.Errorf("delete custody records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CustodyRecord, error) {
	var (
		rec          models.CustodyRecord
		recordID     uuid.UUID
		assetID      uuid.UUID
		userID       uuid.UUID
		checkedOutAt sql.NullTime
		releasedAt   sql.NullTime
	)
	err := row.Scan(&recordID, &assetID, &userID, &rec.ReservedAt, &checkedOutAt, &releasedAt)
	if err != nil {
		return nil, err
	}
	rec.ID = id.CustodyID(recordID)
	rec.AssetID = id.AssetID(assetID)
	rec.UserID = id.UserID(userID)
	if checkedOutAt.Valid {
		t := checkedOutAt.Time
		rec.CheckedOutAt = &t
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		rec.ReleasedAt = &t
	}
	return &rec, nil
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
