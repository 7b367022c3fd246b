package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/domain"
)

func TestRaiseConcernFlagsShipment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)

	concern, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type:        string(domain.ConcernDamage),
		Description: "Torn seal on arrival",
		RaisedBy:    testWarehouseWallet,
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.ConcernOpen), concern.Status)
	require.NotEmpty(t, concern.ConcernID)

	current, err := env.svc.GetShipment(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.True(t, current.ConcernOpen)
	require.Equal(t, string(domain.ShipmentConcernRaised), current.EffectiveStatus())
}

func TestRaiseConcernRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)

	_, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type:        "VIBES",
		Description: "n/a",
		RaisedBy:    testWarehouseWallet,
	})
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeInvalidTransition, domain.ErrCode(err))
}

func TestResolveConcernRequiresResolutionText(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)
	concern, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type:        string(domain.ConcernDelay),
		Description: "Truck stuck at the border",
		RaisedBy:    testTransporterWallet,
	})
	require.NoError(t, err)

	_, err = env.svc.ResolveConcern(ctx, concern.ConcernID, "   ")
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeMissingResolution, domain.ErrCode(err))
}

func TestResolveConcernRequiresAcknowledgement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)
	concern, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type:        string(domain.ConcernOther),
		Description: "Unreadable label",
		RaisedBy:    testWarehouseWallet,
	})
	require.NoError(t, err)

	// OPEN cannot jump straight to RESOLVED.
	_, err = env.svc.ResolveConcern(ctx, concern.ConcernID, "relabelled on site")
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeInvalidTransition, domain.ErrCode(err))
}

func TestConcernLifecycleClearsFlagWhenLastSettles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)

	first, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type: string(domain.ConcernDamage), Description: "Dent", RaisedBy: testWarehouseWallet,
	})
	require.NoError(t, err)
	second, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
		Type: string(domain.ConcernQuantityMismatch), Description: "49 of 50", RaisedBy: testWarehouseWallet,
	})
	require.NoError(t, err)

	_, err = env.svc.AcknowledgeConcern(ctx, first.ConcernID)
	require.NoError(t, err)
	resolved, err := env.svc.ResolveConcern(ctx, first.ConcernID, "cosmetic only, accepted")
	require.NoError(t, err)
	require.Equal(t, string(domain.ConcernResolved), resolved.Status)

	// One concern is still open; the flag stays up.
	current, err := env.svc.GetShipment(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.True(t, current.ConcernOpen)

	// Escalation also settles a concern for flag purposes.
	_, err = env.svc.EscalateConcern(ctx, second.ConcernID)
	require.NoError(t, err)

	current, err = env.svc.GetShipment(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.False(t, current.ConcernOpen)
	require.Equal(t, current.Status, current.EffectiveStatus())
}

func TestAcknowledgeUnknownConcern(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	_, err := env.svc.AcknowledgeConcern(ctx, "no-such-concern")
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeConcernNotFound, domain.ErrCode(err))
}

func TestListConcerns(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)
	for i := 0; i < 3; i++ {
		_, err := env.svc.RaiseConcern(ctx, shipment.ShipmentHash, RaiseConcernInput{
			Type: string(domain.ConcernOther), Description: "issue", RaisedBy: testWarehouseWallet,
		})
		require.NoError(t, err)
	}

	concerns, err := env.svc.ListConcerns(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.Len(t, concerns, 3)

	_, err = env.svc.ListConcerns(ctx, "SHP-missing")
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeShipmentNotFound, domain.ErrCode(err))
}
