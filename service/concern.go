package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
)

// RaiseConcernInput reports an exception against a shipment.
type RaiseConcernInput struct {
	Type        string `json:"type" validate:"required,concern_type"`
	Description string `json:"description" validate:"required"`
	RaisedBy    string `json:"raised_by" validate:"required"`
}

// RaiseConcern opens a new concern on a shipment and flags the shipment
// as needing operator attention.
func (s *service) RaiseConcern(ctx context.Context, shipmentHash string, input RaiseConcernInput) (*models.Concern, error) {
	if !domain.ValidConcernType(input.Type) {
		return nil, domain.NewError(domain.ErrCodeInvalidTransition, "unknown concern type %q", input.Type)
	}

	unlock := s.keys.Lock(shipmentHash)
	defer unlock()

	concern := &models.Concern{
		ConcernID:    uuid.New().String(),
		ShipmentHash: shipmentHash,
		Type:         input.Type,
		Status:       string(domain.ConcernOpen),
		Description:  input.Description,
		RaisedBy:     input.RaisedBy,
		RaisedAt:     time.Now().UTC(),
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		shipment, err := tx.FindShipmentByHash(ctx, shipmentHash)
		if err != nil {
			return err
		}
		if err := tx.CreateConcern(ctx, concern); err != nil {
			return err
		}
		if !shipment.ConcernOpen {
			shipment.ConcernOpen = true
			if err := tx.UpdateShipment(ctx, shipment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateShipment(ctx, shipmentHash)

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("concernID", concern.ConcernID).
		Str("type", input.Type).
		Msg("Concern raised")

	return concern, nil
}

// AcknowledgeConcern moves an open concern to ACKNOWLEDGED.
func (s *service) AcknowledgeConcern(ctx context.Context, concernID string) (*models.Concern, error) {
	return s.transitionConcern(ctx, concernID, domain.ConcernAcknowledged, nil)
}

// ResolveConcern closes an acknowledged concern. The resolution text is
// mandatory.
func (s *service) ResolveConcern(ctx context.Context, concernID, resolution string) (*models.Concern, error) {
	if strings.TrimSpace(resolution) == "" {
		return nil, domain.ErrMissingResolution
	}
	return s.transitionConcern(ctx, concernID, domain.ConcernResolved, &resolution)
}

// EscalateConcern escalates an open or acknowledged concern.
func (s *service) EscalateConcern(ctx context.Context, concernID string) (*models.Concern, error) {
	return s.transitionConcern(ctx, concernID, domain.ConcernEscalated, nil)
}

// ListConcerns lists all concerns of a shipment.
func (s *service) ListConcerns(ctx context.Context, shipmentHash string) ([]*models.Concern, error) {
	if _, err := s.repo.FindShipmentByHash(ctx, shipmentHash); err != nil {
		return nil, err
	}
	return s.repo.ListConcerns(ctx, shipmentHash)
}

// transitionConcern applies one workflow step and clears the shipment
// flag when the last active concern settles.
func (s *service) transitionConcern(ctx context.Context, concernID string, target domain.ConcernStatus, resolution *string) (*models.Concern, error) {
	concern, err := s.repo.FindConcernByID(ctx, concernID)
	if err != nil {
		return nil, err
	}

	unlock := s.keys.Lock(concern.ShipmentHash)
	defer unlock()

	var updated *models.Concern
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		concern, err := tx.FindConcernByID(ctx, concernID)
		if err != nil {
			return err
		}

		if err := domain.TransitionConcern(domain.ConcernStatus(concern.Status), target); err != nil {
			return err
		}

		concern.Status = string(target)
		if resolution != nil {
			concern.Resolution = resolution
		}
		if err := tx.UpdateConcern(ctx, concern); err != nil {
			return err
		}

		if !domain.ConcernActive(target) {
			active, err := tx.CountActiveConcerns(ctx, concern.ShipmentHash)
			if err != nil {
				return err
			}
			if active == 0 {
				shipment, err := tx.FindShipmentByHash(ctx, concern.ShipmentHash)
				if err != nil {
					return err
				}
				if shipment.ConcernOpen {
					shipment.ConcernOpen = false
					if err := tx.UpdateShipment(ctx, shipment); err != nil {
						return err
					}
				}
			}
		}

		updated = concern
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateShipment(ctx, updated.ShipmentHash)

	log.Info().
		Str("concernID", concernID).
		Str("status", string(target)).
		Msg("Concern transitioned")

	return updated, nil
}
