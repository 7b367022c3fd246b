package repository

import (
	"context"

	"example.com/shipchain/services/shipment/models"
)

// ShipmentFilter narrows shipment listings. Role and Wallet together
// scope the listing to shipments the wallet participates in under that
// role; Status filters by lifecycle status. Page is 1-based.
type ShipmentFilter struct {
	Role   string
	Wallet string
	Status string
	Page   int
	Limit  int
}

// Repository provides data access methods for the off-chain store.
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	// Shipment operations
	CreateShipment(ctx context.Context, shipment *models.Shipment) error
	UpdateShipment(ctx context.Context, shipment *models.Shipment) error
	FindShipmentByHash(ctx context.Context, shipmentHash string) (*models.Shipment, error)
	ListShipments(ctx context.Context, filter ShipmentFilter) ([]*models.Shipment, int64, error)

	// Container operations
	CreateContainers(ctx context.Context, containers []models.Container) error
	CountContainers(ctx context.Context, shipmentHash string) (int64, error)
	ListContainers(ctx context.Context, shipmentHash, status string) ([]*models.Container, error)
	FindContainerByID(ctx context.Context, containerID string) (*models.Container, error)
	UpdateContainer(ctx context.Context, container *models.Container) error

	// Concern operations
	CreateConcern(ctx context.Context, concern *models.Concern) error
	UpdateConcern(ctx context.Context, concern *models.Concern) error
	FindConcernByID(ctx context.Context, concernID string) (*models.Concern, error)
	ListConcerns(ctx context.Context, shipmentHash string) ([]*models.Concern, error)
	CountActiveConcerns(ctx context.Context, shipmentHash string) (int64, error)

	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	FindDocumentByID(ctx context.Context, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, shipmentHash string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error

	// LockConfirmation operations
	CreateLockConfirmation(ctx context.Context, confirmation *models.LockConfirmation) error
	GetUnprocessedLockConfirmations(ctx context.Context, limit int) ([]*models.LockConfirmation, error)
	MarkLockConfirmationProcessed(ctx context.Context, txRef string) error
	SetLockConfirmationError(ctx context.Context, txRef, errMsg string) error
}
