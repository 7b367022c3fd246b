package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/ledger"
	"example.com/shipchain/services/shipment/models"
)

// LockShipment performs the single irreversible write: it commits the
// shipment's identity and counts to the ledger, then hands the confirmed
// receipt to the reconciler.
//
// The ledger submission is a slow network round trip; it is deliberately
// not performed under the per-shipment lock. Retrying is safe: a signer
// decline mutates nothing, and a retry after confirmation is caught by
// the ledger-truth duplicate check.
func (s *service) LockShipment(ctx context.Context, shipmentHash string) (*ledger.Receipt, error) {
	// Precondition checks under the per-shipment lock.
	shipment, err := s.validateLockable(ctx, shipmentHash)
	if err != nil {
		return nil, err
	}

	// Blocking submit-and-wait. The wallet holder may decline, which is
	// an expected outcome: nothing was mutated, nothing to clean up.
	receipt, err := s.ledger.SubmitLock(ctx, ledger.LockRequest{
		ShipmentHash:         shipment.ShipmentHash,
		BatchID:              shipment.BatchID,
		NumberOfContainers:   shipment.NumberOfContainers,
		QuantityPerContainer: shipment.QuantityPerContainer,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrSigningDeclined) {
			log.Info().Str("shipmentHash", shipmentHash).Msg("Lock signing declined by wallet holder")
			return nil, domain.NewError(domain.ErrCodeSigningDeclined, "wallet holder declined to sign the lock")
		}
		if errors.Is(err, ledger.ErrDuplicateLock) {
			return nil, domain.ErrDuplicateLock
		}
		return nil, err
	}

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("txRef", receipt.TxRef).
		Str("blockRef", receipt.BlockRef).
		Msg("Ledger confirmed shipment lock")

	// Record the confirmation so the worker can catch up if the inline
	// reconcile below fails or the process dies here.
	if err := s.repo.CreateLockConfirmation(ctx, &models.LockConfirmation{
		ShipmentHash: shipmentHash,
		TxRef:        receipt.TxRef,
		BlockRef:     receipt.BlockRef,
	}); err != nil {
		log.Error().Err(err).Str("txRef", receipt.TxRef).Msg("Failed to record lock confirmation")
	}

	if _, err := s.Reconcile(ctx, shipmentHash, receipt.TxRef, receipt.BlockRef); err != nil {
		// The lock is committed; reconciliation alone is retried, by the
		// caller or by the worker picking up the confirmation row.
		log.Error().Err(err).Str("shipmentHash", shipmentHash).Msg("Reconciliation after lock failed; worker will retry")
		return receipt, nil
	}

	if err := s.repo.MarkLockConfirmationProcessed(ctx, receipt.TxRef); err != nil {
		log.Warn().Err(err).Str("txRef", receipt.TxRef).Msg("Failed to mark lock confirmation processed")
	}

	return receipt, nil
}

// validateLockable checks the lock preconditions under the per-shipment
// lock: status CREATED with both parties assigned, and no record on the
// ledger yet. The ledger, not the off-chain store, is the source of
// truth for duplicates; serializing the pre-check keeps two concurrent
// lock attempts from both passing it. Only the slow submit-and-wait
// happens outside the lock.
func (s *service) validateLockable(ctx context.Context, shipmentHash string) (*models.Shipment, error) {
	unlock := s.keys.Lock(shipmentHash)
	defer unlock()

	shipment, err := s.repo.FindShipmentByHash(ctx, shipmentHash)
	if err != nil {
		return nil, err
	}
	if shipment.Status != string(domain.ShipmentCreated) || shipment.Locked() {
		return nil, domain.ErrDuplicateLock
	}
	if !shipment.FullyAssigned() {
		return nil, domain.ErrIncompleteAssignment
	}

	exists, err := s.ledger.Exists(ctx, shipmentHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateLock
	}

	return shipment, nil
}
