package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/service"
)

// Event type definitions for the ledger-event subscription. Delivery is
// at-least-once; every handler path is idempotent.
const (
	LockConfirmed = "LockConfirmed"
	ScanReported  = "ScanReported"
)

// BusMessage is the common message structure on the queue.
type BusMessage struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// LockConfirmedEvent mirrors a ledger inclusion notification.
type LockConfirmedEvent struct {
	ShipmentHash string `json:"shipment_hash"`
	TxRef        string `json:"tx_ref"`
	BlockRef     string `json:"block_ref"`
}

// ScanReportedEvent is a scan relayed by an edge relay instead of the
// REST endpoint.
type ScanReportedEvent struct {
	QRPayload string `json:"qr_payload"`
	Role      string `json:"role"`
	Wallet    string `json:"wallet"`
	Location  string `json:"location"`
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// ShipmentCore is the slice of the service the event processor drives.
type ShipmentCore interface {
	Reconcile(ctx context.Context, shipmentHash, txRef, blockRef string) (bool, error)
	VerifyScan(ctx context.Context, input service.ScanInput) (*service.VerificationResult, error)
}

type Processor struct {
	svc ShipmentCore
}

func NewProcessor(svc ShipmentCore) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg BusMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	log.Info().Str("eventType", msg.EventType).Msg("Processing message")

	switch msg.EventType {
	case LockConfirmed:
		var event LockConfirmedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		_, err := p.svc.Reconcile(ctx, event.ShipmentHash, event.TxRef, event.BlockRef)
		return err

	case ScanReported:
		var event ScanReportedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		result, err := p.svc.VerifyScan(ctx, service.ScanInput{
			QRPayload: event.QRPayload,
			Role:      event.Role,
			Wallet:    event.Wallet,
			Location:  event.Location,
		})
		if err != nil {
			return err
		}
		if !result.Verified {
			// A rejected scan is a terminal outcome, not a redelivery
			// candidate; the rejection reason is logged by the service.
			log.Warn().
				Str("qrPayload", event.QRPayload).
				Str("reason", result.Reason).
				Msg("Relayed scan rejected")
		}
		return nil

	default:
		return fmt.Errorf("unsupported event type: %s", msg.EventType)
	}
}
