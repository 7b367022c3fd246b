package models

import (
	"time"

	"gorm.io/gorm"
)

// Shipment represents a shipment in the database. The shipment hash is
// assigned at draft creation and never changes; LedgerTxRef stays empty
// until the shipment is locked on the ledger.
type Shipment struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	ShipmentHash         string         `gorm:"uniqueIndex" json:"shipment_hash"`
	BatchID              string         `gorm:"index" json:"batch_id"`
	SupplierWallet       string         `gorm:"index" json:"supplier_wallet"`
	NumberOfContainers   int            `json:"number_of_containers"`
	QuantityPerContainer int            `json:"quantity_per_container"`
	TotalQuantity        int            `json:"total_quantity"`
	Status               string         `gorm:"index" json:"status"`
	ConcernOpen          bool           `gorm:"index" json:"concern_open"`
	LedgerTxRef          *string        `gorm:"uniqueIndex" json:"ledger_tx_ref"`
	LedgerBlockRef       *string        `json:"ledger_block_ref"`
	TransporterWallet    *string        `gorm:"index" json:"transporter_wallet"`
	TransporterName      *string        `json:"transporter_name"`
	TransporterAssigned  *time.Time     `json:"transporter_assigned_at"`
	WarehouseWallet      *string        `gorm:"index" json:"warehouse_wallet"`
	WarehouseName        *string        `json:"warehouse_name"`
	WarehouseAssigned    *time.Time     `json:"warehouse_assigned_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Locked reports whether the shipment has a confirmed ledger record.
func (s *Shipment) Locked() bool {
	return s.LedgerTxRef != nil && *s.LedgerTxRef != ""
}

// EffectiveStatus is the status surfaced to operators: a shipment with
// unresolved concerns shows CONCERN_RAISED until the last one settles.
// The underlying lifecycle status keeps advancing independently.
func (s *Shipment) EffectiveStatus() string {
	if s.ConcernOpen {
		return "CONCERN_RAISED"
	}
	return s.Status
}

// FullyAssigned reports whether both carrier assignments are present.
func (s *Shipment) FullyAssigned() bool {
	return s.TransporterWallet != nil && *s.TransporterWallet != "" &&
		s.WarehouseWallet != nil && *s.WarehouseWallet != ""
}

// Container represents a single physical container of a shipment. The QR
// payload printed on the container is exactly the container ID.
type Container struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ContainerID     string         `gorm:"uniqueIndex" json:"container_id"`
	ShipmentHash    string         `gorm:"index:idx_container_shipment_number,unique" json:"shipment_hash"`
	ContainerNumber int            `gorm:"index:idx_container_shipment_number,unique" json:"container_number"`
	Quantity        int            `json:"quantity"`
	Status          string         `gorm:"index" json:"status"`
	QRPayload       string         `json:"qr_payload"`
	LastScanLoc     *string        `json:"last_scan_location"`
	LastScanWallet  *string        `json:"last_scan_wallet"`
	LastScanAt      *time.Time     `json:"last_scan_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Concern represents an exception raised against a shipment.
type Concern struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ConcernID    string         `gorm:"uniqueIndex" json:"concern_id"`
	ShipmentHash string         `gorm:"index" json:"shipment_hash"`
	Type         string         `json:"type"`
	Status       string         `gorm:"index" json:"status"`
	Description  string         `json:"description"`
	RaisedBy     string         `json:"raised_by"`
	RaisedAt     time.Time      `json:"raised_at"`
	Resolution   *string        `json:"resolution"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Document is an opaque reference to a supporting document held in blob
// storage. Only the reference is persisted, never the bytes.
type Document struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	DocumentID   string         `gorm:"uniqueIndex" json:"document_id"`
	ShipmentHash string         `gorm:"index" json:"shipment_hash"`
	Name         string         `json:"name"`
	MimeType     string         `json:"mime_type"`
	URL          string         `json:"url"`
	UploadedBy   string         `json:"uploaded_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// LockConfirmation records a ledger-confirmed lock awaiting (or after)
// reconciliation. Rows with Processed=false are picked up by the worker
// as the catch-up path; delivery is at-least-once and reconciliation is
// idempotent, so replays are harmless.
type LockConfirmation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ShipmentHash string         `gorm:"index" json:"shipment_hash"`
	TxRef        string         `gorm:"uniqueIndex" json:"tx_ref"`
	BlockRef     string         `json:"block_ref"`
	Processed    bool           `gorm:"index" json:"processed"`
	Error        *string        `json:"error"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
