package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for lifecycle mutations.
// Implementations may wrap a database transaction (the PostgreSQL adapter in
// cmd/server carries a *sql.Tx through ctx and relies on SELECT FOR UPDATE)
// or, in-memory, a per-asset lock. Either way, fn runs with exclusive access
// to the asset and its custody ledger.
type StoreTx interface {
	RunInTx(ctx context.Context, assetID id.AssetID, fn func(txCtx context.Context) error) error
}

// numTxStripes bounds the in-memory lock table. Operations on distinct
// assets rarely collide at this width; same-asset operations always
// serialize, matching the row-lock semantics of the PostgreSQL boundary.
const numTxStripes = 128

// defaultTxTimeout caps how long a lifecycle transaction may run.
const defaultTxTimeout = 5 * time.Second

type inMemoryTx struct {
	stripes [numTxStripes]sync.Mutex
	timeout time.Duration
}

// NewInMemoryTx builds the in-memory transactional boundary used by unit
// tests and the default Service construction. There is no rollback: callers
// validate before mutating, so failures leave no partial writes.
func NewInMemoryTx() StoreTx {
	return &inMemoryTx{}
}

func (t *inMemoryTx) RunInTx(ctx context.Context, assetID id.AssetID, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stripe := stripeFor(assetID)
	t.stripes[stripe].Lock()
	defer t.stripes[stripe].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// stripeFor hashes the asset id onto a lock stripe with FNV-1a.
func stripeFor(assetID id.AssetID) int {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	raw := uuid.UUID(assetID)
	h := uint32(fnvOffset)
	for _, b := range raw {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return int(h % numTxStripes)
}
