package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/identity"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
)

// Reconcile converges the off-chain store with a ledger-confirmed lock.
// It is idempotent: replays and out-of-order deliveries of the same
// confirmation leave the store exactly as a single delivery would.
// Returns true if the confirmation was applied, false if it had already
// been applied.
//
// The container existence check and the batch insert run inside one
// transaction under the per-shipment lock, so a manual retry racing a
// subscription-driven delivery cannot generate a duplicate container set.
func (s *service) Reconcile(ctx context.Context, shipmentHash, txRef, blockRef string) (bool, error) {
	unlock := s.keys.Lock(shipmentHash)
	defer unlock()

	applied := false
	var shipment *models.Shipment
	var created []models.Container

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		shipment, err = tx.FindShipmentByHash(ctx, shipmentHash)
		if err != nil {
			return err
		}

		// Already reconciled: nothing to do, by design.
		if shipment.Locked() {
			return nil
		}

		shipment.Status = string(domain.ShipmentReadyForDispatch)
		shipment.LedgerTxRef = &txRef
		shipment.LedgerBlockRef = &blockRef
		if err := tx.UpdateShipment(ctx, shipment); err != nil {
			return err
		}

		count, err := tx.CountContainers(ctx, shipmentHash)
		if err != nil {
			return err
		}
		if count == 0 {
			created, err = identity.BuildContainers(shipmentHash, shipment.NumberOfContainers, shipment.QuantityPerContainer)
			if err != nil {
				return err
			}
			for i := range created {
				created[i].Status = string(domain.ContainerLocked)
			}
			if err := tx.CreateContainers(ctx, created); err != nil {
				return err
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !applied {
		log.Info().
			Str("shipmentHash", shipmentHash).
			Str("txRef", txRef).
			Msg("Lock confirmation already applied")
		return false, nil
	}

	s.invalidateShipment(ctx, shipmentHash)
	s.indexShipment(ctx, shipment)
	for i := range created {
		s.indexContainer(ctx, &created[i])
	}

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("txRef", txRef).
		Int("containers", len(created)).
		Msg("Lock confirmation reconciled")

	return true, nil
}
