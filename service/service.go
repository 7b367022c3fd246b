package service

import (
	"context"

	"example.com/shipchain/services/shipment/blob"
	"example.com/shipchain/services/shipment/cache"
	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/ledger"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
	"example.com/shipchain/services/shipment/search"
)

// Service defines the business logic operations of the shipment core.
type Service interface {
	// Draft shipments
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error)
	GetShipment(ctx context.Context, shipmentHash string) (*models.Shipment, error)
	ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error)
	AssignParty(ctx context.Context, shipmentHash string, input AssignInput) (*models.Shipment, error)
	OverrideShipmentStatus(ctx context.Context, shipmentHash, target string) (*models.Shipment, error)

	// Lock protocol and reconciliation
	LockShipment(ctx context.Context, shipmentHash string) (*ledger.Receipt, error)
	Reconcile(ctx context.Context, shipmentHash, txRef, blockRef string) (bool, error)

	// Scan verification
	VerifyScan(ctx context.Context, input ScanInput) (*VerificationResult, error)
	ListContainers(ctx context.Context, shipmentHash, status string) ([]*models.Container, error)

	// Concern workflow
	RaiseConcern(ctx context.Context, shipmentHash string, input RaiseConcernInput) (*models.Concern, error)
	AcknowledgeConcern(ctx context.Context, concernID string) (*models.Concern, error)
	ResolveConcern(ctx context.Context, concernID, resolution string) (*models.Concern, error)
	EscalateConcern(ctx context.Context, concernID string) (*models.Concern, error)
	ListConcerns(ctx context.Context, shipmentHash string) ([]*models.Concern, error)

	// Supporting documents
	AttachDocument(ctx context.Context, shipmentHash string, input AttachDocumentInput) (*models.Document, error)
	ListDocuments(ctx context.Context, shipmentHash string) ([]*models.Document, error)
	RemoveDocument(ctx context.Context, documentID string) error
}

// service is an implementation of the Service interface.
type service struct {
	repo    repository.Repository
	ledger  ledger.Client
	blobs   blob.Store
	cache   cache.RedisClient
	indexer search.Indexer
	cfg     config.Config
	keys    *keyedMutex
}

// Option customizes optional collaborators.
type Option func(*service)

// WithCache attaches a Redis read-through cache for shipment snapshots.
func WithCache(c cache.RedisClient) Option {
	return func(s *service) { s.cache = c }
}

// WithIndexer attaches a search indexer for shipments and containers.
func WithIndexer(i search.Indexer) Option {
	return func(s *service) { s.indexer = i }
}

// NewService creates a new service instance.
func NewService(
	repo repository.Repository,
	ledgerClient ledger.Client,
	blobStore blob.Store,
	cfg config.Config,
	opts ...Option,
) Service {
	s := &service{
		repo:   repo,
		ledger: ledgerClient,
		blobs:  blobStore,
		cfg:    cfg,
		keys:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
