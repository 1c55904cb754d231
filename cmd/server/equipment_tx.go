package main

import (
	"context"
	"database/sql"
	"time"

	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
	txcontext "turfops/pkg/platform/tx"
)

const defaultEquipmentTxTimeout = 5 * time.Second

// equipmentPostgresTx is the production transactional boundary. It carries
// the *sql.Tx through the context so every store touched by fn writes into
// the same transaction; per-asset exclusivity comes from the SELECT FOR
// UPDATE the lifecycle service issues first.
type equipmentPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newEquipmentPostgresTx(db *sql.DB) *equipmentPostgresTx {
	return &equipmentPostgresTx{db: db}
}

func (t *equipmentPostgresTx) RunInTx(ctx context.Context, _ id.AssetID, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultEquipmentTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
