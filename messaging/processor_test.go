package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/service"
)

type fakeCore struct {
	reconciled []LockConfirmedEvent
	scans      []service.ScanInput
	scanResult *service.VerificationResult
	err        error
}

func (f *fakeCore) Reconcile(_ context.Context, shipmentHash, txRef, blockRef string) (bool, error) {
	f.reconciled = append(f.reconciled, LockConfirmedEvent{
		ShipmentHash: shipmentHash,
		TxRef:        txRef,
		BlockRef:     blockRef,
	})
	return true, f.err
}

func (f *fakeCore) VerifyScan(_ context.Context, input service.ScanInput) (*service.VerificationResult, error) {
	f.scans = append(f.scans, input)
	return f.scanResult, f.err
}

func busMessage(t *testing.T, eventType string, event interface{}) *azservicebus.ReceivedMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	body, err := json.Marshal(BusMessage{EventType: eventType, Data: data})
	require.NoError(t, err)
	return &azservicebus.ReceivedMessage{Body: body}
}

func TestProcessMessageLockConfirmed(t *testing.T) {
	core := &fakeCore{}
	processor := NewProcessor(core)

	msg := busMessage(t, LockConfirmed, LockConfirmedEvent{
		ShipmentHash: "SHP-abc",
		TxRef:        "tx-1",
		BlockRef:     "block-7",
	})

	require.NoError(t, processor.ProcessMessage(context.Background(), msg))
	require.Len(t, core.reconciled, 1)
	require.Equal(t, "SHP-abc", core.reconciled[0].ShipmentHash)
	require.Equal(t, "tx-1", core.reconciled[0].TxRef)
	require.Equal(t, "block-7", core.reconciled[0].BlockRef)
}

func TestProcessMessageScanReported(t *testing.T) {
	core := &fakeCore{scanResult: &service.VerificationResult{Verified: true}}
	processor := NewProcessor(core)

	msg := busMessage(t, ScanReported, ScanReportedEvent{
		QRPayload: "CNT-abc-1-ff",
		Role:      "transporter",
		Wallet:    "0x2222222222222222222222222222222222222222",
		Location:  "Depot 1",
	})

	require.NoError(t, processor.ProcessMessage(context.Background(), msg))
	require.Len(t, core.scans, 1)
	require.Equal(t, "CNT-abc-1-ff", core.scans[0].QRPayload)
}

func TestProcessMessageRejectedScanIsNotRedelivered(t *testing.T) {
	core := &fakeCore{scanResult: &service.VerificationResult{Verified: false, Reason: "UNKNOWN_CONTAINER"}}
	processor := NewProcessor(core)

	msg := busMessage(t, ScanReported, ScanReportedEvent{QRPayload: "CNT-bogus", Role: "transporter"})

	// A rejection is terminal; returning nil keeps the message settled.
	require.NoError(t, processor.ProcessMessage(context.Background(), msg))
}

func TestProcessMessageUnsupportedEventType(t *testing.T) {
	processor := NewProcessor(&fakeCore{})

	msg := busMessage(t, "SomethingElse", struct{}{})
	require.Error(t, processor.ProcessMessage(context.Background(), msg))
}

func TestProcessMessageMalformedBody(t *testing.T) {
	processor := NewProcessor(&fakeCore{})

	msg := &azservicebus.ReceivedMessage{Body: []byte("not-json")}
	require.Error(t, processor.ProcessMessage(context.Background(), msg))
}
