package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
)

// ScanInput is a physical QR scan reported by an actor.
type ScanInput struct {
	QRPayload string `json:"qr_payload" validate:"required"`
	Role      string `json:"role" validate:"required,actor_role"`
	Wallet    string `json:"wallet" validate:"required,wallet"`
	Location  string `json:"location" validate:"required"`
}

// VerificationResult is the outcome of a scan. A rejected scan carries a
// machine-readable reason; scans are never silently dropped.
type VerificationResult struct {
	Verified  bool              `json:"verified"`
	Reason    string            `json:"reason,omitempty"`
	Message   string            `json:"message,omitempty"`
	Container *models.Container `json:"container,omitempty"`
	Shipment  *models.Shipment  `json:"shipment,omitempty"`
}

// VerifyScan validates a scanned QR payload against the shipment and
// container graph and advances the container (and conditionally the
// shipment) status. Container states only ever move forward.
func (s *service) VerifyScan(ctx context.Context, input ScanInput) (*VerificationResult, error) {
	// The QR payload is exactly the container id; it is checked before
	// anything else, and resolving it tells us which shipment to
	// serialize on.
	container, err := s.repo.FindContainerByID(ctx, input.QRPayload)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Code == domain.ErrCodeUnknownContainer {
			return rejected(de), nil
		}
		return nil, err
	}

	if !domain.ValidRole(input.Role) {
		return rejected(domain.NewError(domain.ErrCodeRoleNotPermitted, "unknown role %q", input.Role)), nil
	}

	unlock := s.keys.Lock(container.ShipmentHash)
	defer unlock()

	var result *VerificationResult
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		// Re-read inside the transaction; the pre-lock read may be stale.
		container, err := tx.FindContainerByID(ctx, input.QRPayload)
		if err != nil {
			return err
		}
		shipment, err := tx.FindShipmentByHash(ctx, container.ShipmentHash)
		if err != nil {
			return err
		}

		if shipment.Status == string(domain.ShipmentDelivered) {
			result = rejected(domain.NewError(domain.ErrCodeShipmentClosed,
				"shipment %s is already delivered", shipment.ShipmentHash))
			return nil
		}

		next, err := domain.NextContainerStatus(domain.ContainerStatus(container.Status), domain.Role(input.Role))
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				result = rejected(de)
				return nil
			}
			return err
		}

		now := time.Now().UTC()
		container.Status = string(next)
		container.LastScanLoc = &input.Location
		container.LastScanWallet = &input.Wallet
		container.LastScanAt = &now
		if err := tx.UpdateContainer(ctx, container); err != nil {
			return err
		}

		// Aggregate rule: the shipment advances only when every container
		// has reached the scanned-to status, decided on the snapshot read
		// inside this transaction.
		if err := s.maybeAdvanceShipment(ctx, tx, shipment, next); err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				result = rejected(de)
				return nil
			}
			return err
		}

		result = &VerificationResult{
			Verified:  true,
			Container: container,
			Shipment:  shipment,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Verified {
		s.invalidateShipment(ctx, result.Shipment.ShipmentHash)
		s.indexContainer(ctx, result.Container)
		s.indexShipment(ctx, result.Shipment)

		log.Info().
			Str("containerID", result.Container.ContainerID).
			Str("shipmentHash", result.Shipment.ShipmentHash).
			Str("status", result.Container.Status).
			Str("role", input.Role).
			Msg("Scan verified")
	} else {
		log.Info().
			Str("qrPayload", input.QRPayload).
			Str("role", input.Role).
			Str("reason", result.Reason).
			Msg("Scan rejected")
	}

	return result, nil
}

// maybeAdvanceShipment applies the aggregate rule after a container
// advanced to next. The shipment moves to the matching status iff all
// containers have reached it and it would be a forward move.
func (s *service) maybeAdvanceShipment(ctx context.Context, tx repository.Repository, shipment *models.Shipment, next domain.ContainerStatus) error {
	target, ok := domain.ShipmentStatusForContainers(next)
	if !ok {
		return nil
	}

	currentRank, ok := domain.ShipmentStatusRank(domain.ShipmentStatus(shipment.Status))
	targetRank, _ := domain.ShipmentStatusRank(target)
	if ok && targetRank <= currentRank {
		return nil
	}

	ready, err := s.allContainersAtLeast(ctx, tx, shipment.ShipmentHash, next)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	if err := s.checkConcernPolicy(ctx, tx, shipment.ShipmentHash, target); err != nil {
		// Under the blocking policy the container scan itself still
		// stands; only the aggregate advance is held back.
		if domain.ErrCode(err) == domain.ErrCodeConcernBlocks {
			log.Info().
				Str("shipmentHash", shipment.ShipmentHash).
				Str("target", string(target)).
				Msg("Aggregate advance held back by open concerns")
			return nil
		}
		return err
	}

	shipment.Status = string(target)
	if err := tx.UpdateShipment(ctx, shipment); err != nil {
		return err
	}

	log.Info().
		Str("shipmentHash", shipment.ShipmentHash).
		Str("status", string(target)).
		Msg("Shipment advanced by aggregate scan rule")

	return nil
}

// ListContainers lists the containers of a shipment with an optional
// status filter.
func (s *service) ListContainers(ctx context.Context, shipmentHash, status string) ([]*models.Container, error) {
	if _, err := s.repo.FindShipmentByHash(ctx, shipmentHash); err != nil {
		return nil, err
	}
	return s.repo.ListContainers(ctx, shipmentHash, status)
}

func rejected(err *domain.Error) *VerificationResult {
	return &VerificationResult{
		Verified: false,
		Reason:   err.Code,
		Message:  err.Message,
	}
}
