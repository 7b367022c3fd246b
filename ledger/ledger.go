package ledger

import (
	"context"
	"errors"
)

// LockRequest carries the immutable facts committed to the ledger when a
// shipment is locked.
type LockRequest struct {
	ShipmentHash         string `json:"shipment_hash"`
	BatchID              string `json:"batch_id"`
	NumberOfContainers   int    `json:"number_of_containers"`
	QuantityPerContainer int    `json:"quantity_per_container"`
}

// Receipt is the confirmation returned once the lock transaction is
// included on the ledger.
type Receipt struct {
	TxRef    string `json:"tx_ref"`
	BlockRef string `json:"block_ref"`
}

// Record is the on-chain view of a locked shipment.
type Record struct {
	Owner                string `json:"owner"`
	BatchID              string `json:"batch_id"`
	NumberOfContainers   int    `json:"number_of_containers"`
	QuantityPerContainer int    `json:"quantity_per_container"`
	Status               string `json:"status"`
}

var (
	// ErrDuplicateLock means the ledger already holds a record for the
	// shipment hash. The caller should re-fetch state, not retry.
	ErrDuplicateLock = errors.New("ledger record already exists for shipment")

	// ErrSigningDeclined means the wallet holder declined to sign. This
	// is an expected outcome, not a fault; nothing was mutated.
	ErrSigningDeclined = errors.New("signing declined by wallet holder")

	// ErrUnavailable means the ledger endpoint could not be reached or
	// timed out. Safe to retry with backoff.
	ErrUnavailable = errors.New("ledger endpoint unavailable")

	// ErrNotFound means no record exists for the shipment hash.
	ErrNotFound = errors.New("no ledger record for shipment")
)

// Client is the contract surface of the ledger this service depends on.
// The submit call blocks until the transaction is included (or the signer
// declines); callers bound it with a context deadline.
type Client interface {
	SubmitLock(ctx context.Context, req LockRequest) (*Receipt, error)
	Exists(ctx context.Context, shipmentHash string) (bool, error)
	GetRecord(ctx context.Context, shipmentHash string) (*Record, error)
}
