package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/models"
)

// gormRepository implements Repository using GORM.
type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-backed repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithTransaction runs fn against a repository bound to a transaction.
func (r *gormRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormRepository{db: tx})
	})
}

// Shipment operations

func (r *gormRepository) CreateShipment(ctx context.Context, shipment *models.Shipment) error {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

func (r *gormRepository) UpdateShipment(ctx context.Context, shipment *models.Shipment) error {
	if err := r.db.WithContext(ctx).Save(shipment).Error; err != nil {
		return fmt.Errorf("failed to update shipment: %w", err)
	}
	return nil
}

func (r *gormRepository) FindShipmentByHash(ctx context.Context, shipmentHash string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).
		Where("shipment_hash = ?", shipmentHash).
		First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to find shipment: %w", err)
	}
	return &shipment, nil
}

func (r *gormRepository) ListShipments(ctx context.Context, filter ShipmentFilter) ([]*models.Shipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{})

	if filter.Wallet != "" {
		switch domain.Role(filter.Role) {
		case domain.RoleTransporter:
			query = query.Where("transporter_wallet = ?", filter.Wallet)
		case domain.RoleWarehouse:
			query = query.Where("warehouse_wallet = ?", filter.Wallet)
		case domain.RoleSupplier:
			query = query.Where("supplier_wallet = ?", filter.Wallet)
		default:
			query = query.Where(
				"supplier_wallet = ? OR transporter_wallet = ? OR warehouse_wallet = ?",
				filter.Wallet, filter.Wallet, filter.Wallet,
			)
		}
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	var shipments []*models.Shipment
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&shipments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}

	return shipments, total, nil
}

// Container operations

func (r *gormRepository) CreateContainers(ctx context.Context, containers []models.Container) error {
	if len(containers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&containers).Error; err != nil {
		return fmt.Errorf("failed to create containers: %w", err)
	}
	return nil
}

func (r *gormRepository) CountContainers(ctx context.Context, shipmentHash string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Container{}).
		Where("shipment_hash = ?", shipmentHash).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count containers: %w", err)
	}
	return count, nil
}

func (r *gormRepository) ListContainers(ctx context.Context, shipmentHash, status string) ([]*models.Container, error) {
	query := r.db.WithContext(ctx).Where("shipment_hash = ?", shipmentHash)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var containers []*models.Container
	if err := query.Order("container_number ASC").Find(&containers).Error; err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return containers, nil
}

func (r *gormRepository) FindContainerByID(ctx context.Context, containerID string) (*models.Container, error) {
	var container models.Container
	if err := r.db.WithContext(ctx).
		Where("container_id = ?", containerID).
		First(&container).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrCodeUnknownContainer, "no container matches payload %q", containerID)
		}
		return nil, fmt.Errorf("failed to find container: %w", err)
	}
	return &container, nil
}

func (r *gormRepository) UpdateContainer(ctx context.Context, container *models.Container) error {
	if err := r.db.WithContext(ctx).Save(container).Error; err != nil {
		return fmt.Errorf("failed to update container: %w", err)
	}
	return nil
}

// Concern operations

func (r *gormRepository) CreateConcern(ctx context.Context, concern *models.Concern) error {
	if err := r.db.WithContext(ctx).Create(concern).Error; err != nil {
		return fmt.Errorf("failed to create concern: %w", err)
	}
	return nil
}

func (r *gormRepository) UpdateConcern(ctx context.Context, concern *models.Concern) error {
	if err := r.db.WithContext(ctx).Save(concern).Error; err != nil {
		return fmt.Errorf("failed to update concern: %w", err)
	}
	return nil
}

func (r *gormRepository) FindConcernByID(ctx context.Context, concernID string) (*models.Concern, error) {
	var concern models.Concern
	if err := r.db.WithContext(ctx).
		Where("concern_id = ?", concernID).
		First(&concern).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConcernNotFound
		}
		return nil, fmt.Errorf("failed to find concern: %w", err)
	}
	return &concern, nil
}

func (r *gormRepository) ListConcerns(ctx context.Context, shipmentHash string) ([]*models.Concern, error) {
	var concerns []*models.Concern
	if err := r.db.WithContext(ctx).
		Where("shipment_hash = ?", shipmentHash).
		Order("raised_at ASC").
		Find(&concerns).Error; err != nil {
		return nil, fmt.Errorf("failed to list concerns: %w", err)
	}
	return concerns, nil
}

func (r *gormRepository) CountActiveConcerns(ctx context.Context, shipmentHash string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Concern{}).
		Where("shipment_hash = ? AND status IN ?", shipmentHash,
			[]string{string(domain.ConcernOpen), string(domain.ConcernAcknowledged)}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active concerns: %w", err)
	}
	return count, nil
}

// Document operations

func (r *gormRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *gormRepository) FindDocumentByID(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrCodeShipmentNotFound, "document %q not found", documentID)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return &doc, nil
}

func (r *gormRepository) ListDocuments(ctx context.Context, shipmentHash string) ([]*models.Document, error) {
	var docs []*models.Document
	if err := r.db.WithContext(ctx).
		Where("shipment_hash = ?", shipmentHash).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *gormRepository) DeleteDocument(ctx context.Context, documentID string) error {
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.Document{}).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// LockConfirmation operations

func (r *gormRepository) CreateLockConfirmation(ctx context.Context, confirmation *models.LockConfirmation) error {
	if err := r.db.WithContext(ctx).Create(confirmation).Error; err != nil {
		return fmt.Errorf("failed to create lock confirmation: %w", err)
	}
	return nil
}

func (r *gormRepository) GetUnprocessedLockConfirmations(ctx context.Context, limit int) ([]*models.LockConfirmation, error) {
	var confirmations []*models.LockConfirmation
	if err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&confirmations).Error; err != nil {
		return nil, fmt.Errorf("failed to get unprocessed lock confirmations: %w", err)
	}
	return confirmations, nil
}

func (r *gormRepository) MarkLockConfirmationProcessed(ctx context.Context, txRef string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.LockConfirmation{}).
		Where("tx_ref = ?", txRef).
		Updates(map[string]interface{}{
			"processed":  true,
			"error":      nil,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark lock confirmation as processed: %w", err)
	}
	return nil
}

func (r *gormRepository) SetLockConfirmationError(ctx context.Context, txRef, errMsg string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.LockConfirmation{}).
		Where("tx_ref = ?", txRef).
		Update("error", &errMsg).Error; err != nil {
		return fmt.Errorf("failed to record lock confirmation error: %w", err)
	}
	return nil
}
