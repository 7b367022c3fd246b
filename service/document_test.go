package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/domain"
)

func TestAttachAndRemoveDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	shipment := env.createDraft(ctx, 1, 10)

	doc, err := env.svc.AttachDocument(ctx, shipment.ShipmentHash, AttachDocumentInput{
		Name:       "packing-list.pdf",
		MimeType:   "application/pdf",
		Data:       []byte("%PDF-1.4 test"),
		UploadedBy: testSupplierWallet,
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.DocumentID)
	require.NotEmpty(t, doc.URL)

	// The bytes live in the blob store, only the reference in the row.
	require.Contains(t, env.blobs.blobs, doc.URL)

	docs, err := env.svc.ListDocuments(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, env.svc.RemoveDocument(ctx, doc.DocumentID))
	require.NotContains(t, env.blobs.blobs, doc.URL)

	docs, err = env.svc.ListDocuments(ctx, shipment.ShipmentHash)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestAttachDocumentUnknownShipment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(config.Config{})

	_, err := env.svc.AttachDocument(ctx, "SHP-missing", AttachDocumentInput{
		Name: "x", MimeType: "text/plain", Data: []byte("x"), UploadedBy: testSupplierWallet,
	})
	require.Error(t, err)
	require.Equal(t, domain.ErrCodeShipmentNotFound, domain.ErrCode(err))

	// Nothing was written to the blob store.
	require.Empty(t, env.blobs.blobs)
}
