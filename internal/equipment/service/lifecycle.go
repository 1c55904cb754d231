package service

import (
	"context"
	"time"

	"turfops/internal/audit"
	"turfops/internal/equipment/models"
	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
	"turfops/pkg/requestcontext"
)

// Every operation below follows the same shape: open the transaction, lock
// the asset row, validate the transition against the current status and the
// custody ledger, mutate, re-project the status, append exactly one audit
// event, commit. Any validation failure aborts the whole transaction.

// Reserve places a reservation for userID on an available asset.
func (s *Service) Reserve(ctx context.Context, assetID id.AssetID, userID id.UserID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.reserve")
	defer span.End()
	defer s.observeOp("reserve", time.Now())

	if err := requireIDs(assetID, userID); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if a.IsRetired() || a.Status == models.StatusRetired {
			return models.ErrRetired
		}
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		if open != nil {
			return models.ErrAlreadyInUse
		}
		if a.Status != models.StatusAvailable {
			return models.ErrNotAvailable
		}

		now := requestcontext.Now(txCtx)
		rec := models.NewReservation(id.NewCustodyID(), assetID, userID, now)
		if err := s.custody.Create(txCtx, rec); err != nil {
			return err
		}
		if err := s.projectAndPersist(txCtx, a, rec, now); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbReserved},
			reservedPayload{Asset: a, Custody: rec})
		if err != nil {
			return err
		}
		result = &Result{Asset: a, Custody: rec}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbReserved, err)
		return nil, err
	}

	s.recordTransition(audit.VerbReserved)
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// CancelReservation releases an open, not-yet-checked-out reservation owned
// by userID.
func (s *Service) CancelReservation(ctx context.Context, assetID id.AssetID, userID id.UserID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.cancel_reservation")
	defer span.End()
	defer s.observeOp("cancel_reservation", time.Now())

	if err := requireIDs(assetID, userID); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		if open == nil || open.IsCheckedOut() {
			return models.ErrNoActiveReservation
		}
		if !open.OwnedBy(userID) {
			return models.ErrNotOwner
		}

		now := requestcontext.Now(txCtx)
		if err := s.custody.MarkReleased(txCtx, open.ID, now); err != nil {
			return err
		}
		open.ReleasedAt = &now
		if err := s.projectAndPersist(txCtx, a, nil, now); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbReservationCancelled},
			reservationCancelledPayload{Asset: a, Custody: open})
		if err != nil {
			return err
		}
		result = &Result{Asset: a, Custody: open}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbReservationCancelled, err)
		return nil, err
	}

	s.recordTransition(audit.VerbReservationCancelled)
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// CheckoutWithCode converts userID's reservation into a physical checkout,
// gated on the scanned QR code matching the asset's assigned slug.
func (s *Service) CheckoutWithCode(ctx context.Context, assetID id.AssetID, userID id.UserID, code string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.checkout")
	defer span.End()
	defer s.observeOp("checkout", time.Now())

	if err := requireIDs(assetID, userID); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		if open == nil || open.IsCheckedOut() || !open.OwnedBy(userID) {
			return models.ErrNotAllowed
		}
		if err := models.VerifyCode(a, code); err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		if err := s.custody.MarkCheckedOut(txCtx, open.ID, now); err != nil {
			return err
		}
		open.CheckedOutAt = &now
		if err := s.projectAndPersist(txCtx, a, open, now); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbCheckedOut},
			checkedOutPayload{Asset: a, Custody: open})
		if err != nil {
			return err
		}
		result = &Result{Asset: a, Custody: open}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbCheckedOut, err)
		return nil, err
	}

	s.recordTransition(audit.VerbCheckedOut)
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// ReturnWithCode closes userID's checked-out custody record, gated on the
// QR code the same way as checkout.
func (s *Service) ReturnWithCode(ctx context.Context, assetID id.AssetID, userID id.UserID, code string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.return")
	defer span.End()
	defer s.observeOp("return", time.Now())

	if err := requireIDs(assetID, userID); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		if open == nil || !open.IsCheckedOut() || !open.OwnedBy(userID) {
			return models.ErrNotAllowed
		}
		if err := models.VerifyCode(a, code); err != nil {
			return err
		}

		now := requestcontext.Now(txCtx)
		if err := s.custody.MarkReleased(txCtx, open.ID, now); err != nil {
			return err
		}
		open.ReleasedAt = &now
		if err := s.projectAndPersist(txCtx, a, nil, now); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbReturned},
			returnedPayload{Asset: a, Custody: open})
		if err != nil {
			return err
		}
		result = &Result{Asset: a, Custody: open}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbReturned, err)
		return nil, err
	}

	s.recordTransition(audit.VerbReturned)
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// ForceRelease administratively closes whatever custody record is open.
// Safe no-op when nothing is open; the no-op writes no audit event because
// nothing changed.
func (s *Service) ForceRelease(ctx context.Context, assetID id.AssetID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.force_release")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		if open == nil {
			result = &Result{Asset: a}
			return nil
		}

		now := requestcontext.Now(txCtx)
		if err := s.custody.MarkReleased(txCtx, open.ID, now); err != nil {
			return err
		}
		open.ReleasedAt = &now
		if err := s.projectAndPersist(txCtx, a, nil, now); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbForceReleased},
			forceReleasedPayload{Asset: a, Custody: open})
		if err != nil {
			return err
		}
		result = &Result{Asset: a, Custody: open}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbForceReleased, err)
		return nil, err
	}

	if result.Custody != nil {
		s.recordTransition(audit.VerbForceReleased)
	}
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// StartMaintenance takes an idle asset out of circulation.
func (s *Service) StartMaintenance(ctx context.Context, assetID id.AssetID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.start_maintenance")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var result *Result
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if a.IsRetired() || a.Status == models.StatusRetired {
			return models.ErrRetired
		}
		hasOpen, err := s.custody.HasOpen(txCtx, assetID)
		if err != nil {
			return err
		}
		if hasOpen {
			return models.ErrActiveCheckoutExists
		}

		now := requestcontext.Now(txCtx)
		a.Status = models.StatusMaintenance
		a.UpdatedAt = now
		if err := s.assets.UpdateStatus(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbMaintenanceStarted},
			maintenanceStartedPayload{Asset: a})
		if err != nil {
			return err
		}
		result = &Result{Asset: a}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbMaintenanceStarted, err)
		return nil, err
	}

	s.recordTransition(audit.VerbMaintenanceStarted)
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// EndMaintenance returns the asset to circulation, re-projecting its status
// from the custody ledger. Idempotent: ending maintenance on an asset not in
// maintenance changes nothing and writes no audit event.
func (s *Service) EndMaintenance(ctx context.Context, assetID id.AssetID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.end_maintenance")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var result *Result
	var changed bool
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if a.Status != models.StatusMaintenance {
			result = &Result{Asset: a}
			return nil
		}

		now := requestcontext.Now(txCtx)
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		// Clear the sticky maintenance state so projection derives the
		// real status from the ledger.
		a.Status = models.StatusAvailable
		a.UpdatedAt = now
		next := models.ProjectStatus(a, open)
		a.Status = next
		if err := s.assets.UpdateStatus(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbMaintenanceEnded},
			maintenanceEndedPayload{Asset: a})
		if err != nil {
			return err
		}
		changed = true
		result = &Result{Asset: a, Custody: open}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbMaintenanceEnded, err)
		return nil, err
	}

	if changed {
		s.recordTransition(audit.VerbMaintenanceEnded)
	}
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// Retire takes the asset out of service permanently. Blocked while any
// custody record is open. Retiring an already retired asset is a no-op.
func (s *Service) Retire(ctx context.Context, assetID id.AssetID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.retire")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var result *Result
	var changed bool
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if a.IsRetired() {
			result = &Result{Asset: a}
			return nil
		}
		if a.Status == models.StatusReserved || a.Status == models.StatusCheckedOut {
			return models.ErrCannotRetireWhileInUse
		}
		hasOpen, err := s.custody.HasOpen(txCtx, assetID)
		if err != nil {
			return err
		}
		if hasOpen {
			return models.ErrActiveCheckoutExists
		}

		now := requestcontext.Now(txCtx)
		a.ApplyRetirement(now)
		if err := s.assets.UpdateStatus(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbRetired},
			retiredPayload{Asset: a})
		if err != nil {
			return err
		}
		changed = true
		result = &Result{Asset: a}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbRetired, err)
		return nil, err
	}

	if changed {
		s.recordTransition(audit.VerbRetired)
	}
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// Unretire puts a retired asset back in service. The status is re-projected
// from the custody ledger rather than assumed AVAILABLE, so a ledger left
// dirty by an out-of-band write surfaces instead of being masked. No-op when
// the asset is not retired.
func (s *Service) Unretire(ctx context.Context, assetID id.AssetID) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "equipment.unretire")
	defer span.End()

	if assetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	var result *Result
	var changed bool
	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if !a.IsRetired() && a.Status != models.StatusRetired {
			result = &Result{Asset: a}
			return nil
		}

		now := requestcontext.Now(txCtx)
		open, err := s.custody.OpenFor(txCtx, assetID)
		if err != nil {
			return err
		}
		a.ApplyUnretirement(now)
		a.Status = models.ProjectStatus(a, open)
		if err := s.assets.UpdateStatus(txCtx, a); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbUnretired},
			unretiredPayload{Asset: a})
		if err != nil {
			return err
		}
		changed = true
		result = &Result{Asset: a}
		return nil
	})
	if err != nil {
		s.recordFailure(audit.VerbUnretired, err)
		return nil, err
	}

	if changed {
		s.recordTransition(audit.VerbUnretired)
	}
	s.cacheStatus(ctx, result.Asset)
	return result, nil
}

// HardDelete permanently removes a retired asset and its closed custody
// history. The asset lock plus the open-record check guarantee no dangling
// open record can survive the delete.
func (s *Service) HardDelete(ctx context.Context, assetID id.AssetID) error {
	ctx, span := s.tracer.Start(ctx, "equipment.hard_delete")
	defer span.End()

	if assetID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}

	err := s.tx.RunInTx(ctx, assetID, func(txCtx context.Context) error {
		a, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return err
		}
		if !a.IsRetired() && a.Status != models.StatusRetired {
			return models.ErrNotRetired
		}
		hasOpen, err := s.custody.HasOpen(txCtx, assetID)
		if err != nil {
			return err
		}
		if hasOpen {
			return models.ErrActiveCheckoutExists
		}

		removed, err := s.custody.DeleteClosedForAsset(txCtx, assetID)
		if err != nil {
			return err
		}
		if err := s.assets.Delete(txCtx, assetID); err != nil {
			return err
		}
		_, err = s.auditor.Record(txCtx, requestcontext.ActorID(txCtx),
			audit.Action{Scope: audit.ScopeEquipment, Verb: audit.VerbDeleted},
			deletedPayload{AssetID: assetID.String(), RemovedRecords: removed})
		return err
	})
	if err != nil {
		s.recordFailure(audit.VerbDeleted, err)
		return err
	}

	s.recordTransition(audit.VerbDeleted)
	s.cacheRemove(ctx, assetID)
	return nil
}

func requireIDs(assetID id.AssetID, userID id.UserID) error {
	if assetID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	return nil
}

func (s *Service) recordTransition(verb audit.Verb) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementTransition(string(verb))
}

func (s *Service) recordFailure(verb audit.Verb, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementFailure(string(verb), dErrors.ReasonOf(err))
}
