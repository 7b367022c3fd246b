package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/cache"
	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/identity"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
)

const shipmentCacheTTL = 5 * time.Minute

// CreateShipmentInput is the request to create a draft shipment.
type CreateShipmentInput struct {
	BatchID              string `json:"batch_id" validate:"required"`
	SupplierWallet       string `json:"supplier_wallet" validate:"required,wallet"`
	NumberOfContainers   int    `json:"number_of_containers" validate:"required,min=1"`
	QuantityPerContainer int    `json:"quantity_per_container" validate:"required,min=1"`
}

// AssignInput assigns a transporter or warehouse to a shipment.
type AssignInput struct {
	Role   string `json:"role" validate:"required,actor_role"`
	Wallet string `json:"wallet" validate:"required,wallet"`
	Name   string `json:"name" validate:"required"`
}

// CreateShipment creates a draft shipment off-chain. The shipment hash is
// derived here and never changes afterwards.
func (s *service) CreateShipment(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error) {
	if input.NumberOfContainers < 1 || input.QuantityPerContainer < 1 {
		return nil, domain.ErrInvalidContainerSpec
	}

	now := time.Now().UTC()
	shipmentHash, err := identity.DeriveShipmentID(input.BatchID, input.SupplierWallet, now)
	if err != nil {
		return nil, err
	}

	shipment := &models.Shipment{
		ShipmentHash:         shipmentHash,
		BatchID:              input.BatchID,
		SupplierWallet:       input.SupplierWallet,
		NumberOfContainers:   input.NumberOfContainers,
		QuantityPerContainer: input.QuantityPerContainer,
		TotalQuantity:        input.NumberOfContainers * input.QuantityPerContainer,
		Status:               string(domain.ShipmentCreated),
	}

	if err := s.repo.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("batchID", input.BatchID).
		Int("containers", input.NumberOfContainers).
		Msg("Draft shipment created")

	return shipment, nil
}

// GetShipment fetches a shipment, serving from cache when available.
func (s *service) GetShipment(ctx context.Context, shipmentHash string) (*models.Shipment, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cache.ShipmentKey(shipmentHash)); err == nil {
			var shipment models.Shipment
			if err := json.Unmarshal([]byte(raw), &shipment); err == nil {
				return &shipment, nil
			}
		} else if !cache.IsMiss(err) {
			log.Warn().Err(err).Str("shipmentHash", shipmentHash).Msg("Cache read failed")
		}
	}

	shipment, err := s.repo.FindShipmentByHash(ctx, shipmentHash)
	if err != nil {
		return nil, err
	}

	s.cacheShipment(ctx, shipment)
	return shipment, nil
}

// ListShipments lists shipments for a role/wallet/status filter.
func (s *service) ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error) {
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.repo.ListShipments(ctx, filter)
}

// AssignParty assigns the transporter or warehouse for a shipment. Only
// draft shipments can be (re)assigned; assignments are frozen by the lock.
func (s *service) AssignParty(ctx context.Context, shipmentHash string, input AssignInput) (*models.Shipment, error) {
	if !identity.ValidWallet(input.Wallet) {
		return nil, domain.NewError(domain.ErrCodeInvalidContainerSpec, "malformed wallet address %q", input.Wallet)
	}

	unlock := s.keys.Lock(shipmentHash)
	defer unlock()

	shipment, err := s.repo.FindShipmentByHash(ctx, shipmentHash)
	if err != nil {
		return nil, err
	}
	if shipment.Status != string(domain.ShipmentCreated) {
		return nil, domain.NewTransitionError(domain.ErrCodeInvalidTransition, input.Role, shipment.Status, shipment.Status)
	}

	now := time.Now().UTC()
	switch domain.Role(input.Role) {
	case domain.RoleTransporter:
		shipment.TransporterWallet = &input.Wallet
		shipment.TransporterName = &input.Name
		shipment.TransporterAssigned = &now
	case domain.RoleWarehouse:
		shipment.WarehouseWallet = &input.Wallet
		shipment.WarehouseName = &input.Name
		shipment.WarehouseAssigned = &now
	default:
		return nil, domain.NewError(domain.ErrCodeRoleNotPermitted, "role %q cannot be assigned to a shipment", input.Role)
	}

	if err := s.repo.UpdateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	s.invalidateShipment(ctx, shipmentHash)
	return shipment, nil
}

// OverrideShipmentStatus patches the shipment status directly. The
// operational override obeys the same rules as the scan state machine:
// forward-only, only after the lock, and aggregate targets require every
// container to have reached the matching status.
func (s *service) OverrideShipmentStatus(ctx context.Context, shipmentHash, target string) (*models.Shipment, error) {
	targetStatus := domain.ShipmentStatus(target)
	if _, ok := domain.ShipmentStatusRank(targetStatus); !ok {
		return nil, domain.NewTransitionError(domain.ErrCodeInvalidTransition, "", "", target)
	}

	unlock := s.keys.Lock(shipmentHash)
	defer unlock()

	var updated *models.Shipment
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		shipment, err := tx.FindShipmentByHash(ctx, shipmentHash)
		if err != nil {
			return err
		}
		if !shipment.Locked() {
			return domain.NewError(domain.ErrCodeInvalidTransition, "shipment %s is not locked; status cannot be overridden", shipmentHash)
		}
		if err := domain.CanOverrideShipmentStatus(domain.ShipmentStatus(shipment.Status), targetStatus); err != nil {
			return err
		}

		// Aggregate targets need the whole container set advanced.
		if containerTarget, ok := containerStatusForShipment(targetStatus); ok {
			ready, err := s.allContainersAtLeast(ctx, tx, shipmentHash, containerTarget)
			if err != nil {
				return err
			}
			if !ready {
				return domain.NewError(domain.ErrCodeContainersNotAdvanced,
					"not all containers of %s have reached %s", shipmentHash, containerTarget)
			}
			if err := s.checkConcernPolicy(ctx, tx, shipmentHash, targetStatus); err != nil {
				return err
			}
		}

		shipment.Status = target
		if err := tx.UpdateShipment(ctx, shipment); err != nil {
			return err
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateShipment(ctx, shipmentHash)
	s.indexShipment(ctx, updated)

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("status", target).
		Msg("Shipment status overridden")

	return updated, nil
}

// containerStatusForShipment maps an aggregate shipment target to the
// container status every container must have reached.
func containerStatusForShipment(s domain.ShipmentStatus) (domain.ContainerStatus, bool) {
	switch s {
	case domain.ShipmentInTransit:
		return domain.ContainerInTransit, true
	case domain.ShipmentAtWarehouse:
		return domain.ContainerAtWarehouse, true
	case domain.ShipmentDelivered:
		return domain.ContainerDelivered, true
	}
	return "", false
}

// allContainersAtLeast reads the whole container set inside the current
// transaction and reports whether every container has reached target.
func (s *service) allContainersAtLeast(ctx context.Context, tx repository.Repository, shipmentHash string, target domain.ContainerStatus) (bool, error) {
	containers, err := tx.ListContainers(ctx, shipmentHash, "")
	if err != nil {
		return false, err
	}
	if len(containers) == 0 {
		return false, nil
	}
	for _, c := range containers {
		if !domain.ContainerAtLeast(domain.ContainerStatus(c.Status), target) {
			return false, nil
		}
	}
	return true, nil
}

// checkConcernPolicy enforces the optional policy that open concerns
// block the warehouse/delivery aggregates. Transit is never gated.
func (s *service) checkConcernPolicy(ctx context.Context, tx repository.Repository, shipmentHash string, target domain.ShipmentStatus) error {
	if !s.cfg.ConcernBlocksDelivery {
		return nil
	}
	if target != domain.ShipmentAtWarehouse && target != domain.ShipmentDelivered {
		return nil
	}
	active, err := tx.CountActiveConcerns(ctx, shipmentHash)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.NewError(domain.ErrCodeConcernBlocks,
			"%d unresolved concern(s) block advancing %s to %s", active, shipmentHash, target)
	}
	return nil
}

func (s *service) cacheShipment(ctx context.Context, shipment *models.Shipment) {
	if s.cache == nil || shipment == nil {
		return
	}
	raw, err := json.Marshal(shipment)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.ShipmentKey(shipment.ShipmentHash), string(raw), shipmentCacheTTL); err != nil {
		log.Warn().Err(err).Str("shipmentHash", shipment.ShipmentHash).Msg("Cache write failed")
	}
}

func (s *service) invalidateShipment(ctx context.Context, shipmentHash string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.ShipmentKey(shipmentHash)); err != nil {
		log.Warn().Err(err).Str("shipmentHash", shipmentHash).Msg("Cache invalidation failed")
	}
}

func (s *service) indexShipment(ctx context.Context, shipment *models.Shipment) {
	if s.indexer == nil || shipment == nil {
		return
	}
	if err := s.indexer.IndexShipment(ctx, shipment); err != nil {
		log.Warn().Err(err).Str("shipmentHash", shipment.ShipmentHash).Msg("Failed to index shipment")
	}
}

func (s *service) indexContainer(ctx context.Context, container *models.Container) {
	if s.indexer == nil || container == nil {
		return
	}
	if err := s.indexer.IndexContainer(ctx, container); err != nil {
		log.Warn().Err(err).Str("containerID", container.ContainerID).Msg("Failed to index container")
	}
}
