package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/ledger"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
)

// fakeRepo is an in-memory Repository used to exercise the multi-step
// lock/reconcile/scan flows without a database.
type fakeRepo struct {
	mu            sync.Mutex
	shipments     map[string]*models.Shipment
	containers    map[string]*models.Container
	concerns      map[string]*models.Concern
	documents     map[string]*models.Document
	confirmations map[string]*models.LockConfirmation
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		shipments:     make(map[string]*models.Shipment),
		containers:    make(map[string]*models.Container),
		concerns:      make(map[string]*models.Concern),
		documents:     make(map[string]*models.Document),
		confirmations: make(map[string]*models.LockConfirmation),
	}
}

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) CreateShipment(_ context.Context, shipment *models.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shipments[shipment.ShipmentHash]; ok {
		return fmt.Errorf("shipment %s already exists", shipment.ShipmentHash)
	}
	f.nextID++
	shipment.ID = f.nextID
	cp := *shipment
	f.shipments[shipment.ShipmentHash] = &cp
	return nil
}

func (f *fakeRepo) UpdateShipment(_ context.Context, shipment *models.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *shipment
	f.shipments[shipment.ShipmentHash] = &cp
	return nil
}

func (f *fakeRepo) FindShipmentByHash(_ context.Context, shipmentHash string) (*models.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shipments[shipmentHash]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) ListShipments(_ context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Shipment
	for _, s := range f.shipments {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) CreateContainers(_ context.Context, containers []models.Container) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range containers {
		f.nextID++
		containers[i].ID = f.nextID
		cp := containers[i]
		f.containers[cp.ContainerID] = &cp
	}
	return nil
}

func (f *fakeRepo) CountContainers(_ context.Context, shipmentHash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.containers {
		if c.ShipmentHash == shipmentHash {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ListContainers(_ context.Context, shipmentHash, status string) ([]*models.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Container
	for _, c := range f.containers {
		if c.ShipmentHash != shipmentHash {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) FindContainerByID(_ context.Context, containerID string) (*models.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[containerID]
	if !ok {
		return nil, domain.NewError(domain.ErrCodeUnknownContainer, "no container matches payload %q", containerID)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) UpdateContainer(_ context.Context, container *models.Container) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *container
	f.containers[container.ContainerID] = &cp
	return nil
}

func (f *fakeRepo) CreateConcern(_ context.Context, concern *models.Concern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	concern.ID = f.nextID
	cp := *concern
	f.concerns[concern.ConcernID] = &cp
	return nil
}

func (f *fakeRepo) UpdateConcern(_ context.Context, concern *models.Concern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *concern
	f.concerns[concern.ConcernID] = &cp
	return nil
}

func (f *fakeRepo) FindConcernByID(_ context.Context, concernID string) (*models.Concern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.concerns[concernID]
	if !ok {
		return nil, domain.ErrConcernNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListConcerns(_ context.Context, shipmentHash string) ([]*models.Concern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Concern
	for _, c := range f.concerns {
		if c.ShipmentHash == shipmentHash {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountActiveConcerns(_ context.Context, shipmentHash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.concerns {
		if c.ShipmentHash == shipmentHash && domain.ConcernActive(domain.ConcernStatus(c.Status)) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CreateDocument(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	doc.ID = f.nextID
	cp := *doc
	f.documents[doc.DocumentID] = &cp
	return nil
}

func (f *fakeRepo) FindDocumentByID(_ context.Context, documentID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.documents[documentID]
	if !ok {
		return nil, domain.NewError(domain.ErrCodeShipmentNotFound, "document %q not found", documentID)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) ListDocuments(_ context.Context, shipmentHash string) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.documents {
		if d.ShipmentHash == shipmentHash {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.documents, documentID)
	return nil
}

func (f *fakeRepo) CreateLockConfirmation(_ context.Context, confirmation *models.LockConfirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	confirmation.ID = f.nextID
	cp := *confirmation
	f.confirmations[confirmation.TxRef] = &cp
	return nil
}

func (f *fakeRepo) GetUnprocessedLockConfirmations(_ context.Context, limit int) ([]*models.LockConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.LockConfirmation
	for _, c := range f.confirmations {
		if !c.Processed {
			cp := *c
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkLockConfirmationProcessed(_ context.Context, txRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.confirmations[txRef]; ok {
		c.Processed = true
		c.Error = nil
	}
	return nil
}

func (f *fakeRepo) SetLockConfirmationError(_ context.Context, txRef, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.confirmations[txRef]; ok {
		c.Error = &errMsg
	}
	return nil
}

// MockLedgerClient mocks the ledger gateway.
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) SubmitLock(ctx context.Context, req ledger.LockRequest) (*ledger.Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Receipt), args.Error(1)
}

func (m *MockLedgerClient) Exists(ctx context.Context, shipmentHash string) (bool, error) {
	args := m.Called(ctx, shipmentHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerClient) GetRecord(ctx context.Context, shipmentHash string) (*ledger.Record, error) {
	args := m.Called(ctx, shipmentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

// fakeBlobStore records stored blobs in memory.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Store(_ context.Context, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	url := fmt.Sprintf("blob://documents/%d", f.seq)
	f.blobs[url] = data
	return url, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, url)
	return nil
}

const (
	testSupplierWallet    = "0x1111111111111111111111111111111111111111"
	testTransporterWallet = "0x2222222222222222222222222222222222222222"
	testWarehouseWallet   = "0x3333333333333333333333333333333333333333"
)

type testEnv struct {
	repo   *fakeRepo
	ledger *MockLedgerClient
	blobs  *fakeBlobStore
	svc    Service
}

func newTestEnv(cfg config.Config) *testEnv {
	env := &testEnv{
		repo:   newFakeRepo(),
		ledger: new(MockLedgerClient),
		blobs:  newFakeBlobStore(),
	}
	env.svc = NewService(env.repo, env.ledger, env.blobs, cfg)
	return env
}

// createDraft creates a draft shipment with both parties assigned.
func (e *testEnv) createDraft(ctx context.Context, containers, qty int) *models.Shipment {
	shipment, err := e.svc.CreateShipment(ctx, CreateShipmentInput{
		BatchID:              "BATCH-001",
		SupplierWallet:       testSupplierWallet,
		NumberOfContainers:   containers,
		QuantityPerContainer: qty,
	})
	if err != nil {
		panic(err)
	}
	if _, err := e.svc.AssignParty(ctx, shipment.ShipmentHash, AssignInput{
		Role: "transporter", Wallet: testTransporterWallet, Name: "Fast Freight",
	}); err != nil {
		panic(err)
	}
	if _, err := e.svc.AssignParty(ctx, shipment.ShipmentHash, AssignInput{
		Role: "warehouse", Wallet: testWarehouseWallet, Name: "Central WH",
	}); err != nil {
		panic(err)
	}
	return shipment
}

// lock runs the full lock protocol with a stubbed ledger.
func (e *testEnv) lock(ctx context.Context, shipmentHash string) *ledger.Receipt {
	e.ledger.On("Exists", mock.Anything, shipmentHash).Return(false, nil).Once()
	e.ledger.On("SubmitLock", mock.Anything, mock.AnythingOfType("ledger.LockRequest")).
		Return(&ledger.Receipt{TxRef: "tx-" + shipmentHash[:12], BlockRef: "block-1"}, nil).Once()

	receipt, err := e.svc.LockShipment(ctx, shipmentHash)
	if err != nil {
		panic(err)
	}
	return receipt
}
