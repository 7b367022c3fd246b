package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/config"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewDiskStore(config.Config{
		BlobStoragePath: t.TempDir(),
		BlobBaseURL:     "http://localhost:8080/documents",
	})
	require.NoError(t, err)
	return store
}

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	url, err := store.Store(ctx, []byte("%PDF-1.4 test"), "application/pdf")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/documents/"))
	require.True(t, strings.HasSuffix(url, ".pdf"))

	require.NoError(t, store.Delete(ctx, url))

	// Deleting an already-removed blob is not an error.
	require.NoError(t, store.Delete(ctx, url))
}

func TestDiskStoreUnknownMimeFallsBackToBin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	url, err := store.Store(ctx, []byte{0x00, 0x01}, "application/x-unknown")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(url, ".bin"))
}

func TestDiskStoreDeleteRejectsForeignURL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.Error(t, store.Delete(ctx, "http://elsewhere/documents/doc.pdf"))
}

func TestDiskStoreDeleteRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewDiskStore(config.Config{
		BlobStoragePath: dir,
		BlobBaseURL:     "http://localhost:8080/documents",
	})
	require.NoError(t, err)

	// Plant a file outside the storage dir and try to reach it.
	outside := filepath.Join(filepath.Dir(dir), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0644))
	defer os.Remove(outside)

	err = store.Delete(ctx, "http://localhost:8080/documents/../victim.txt")
	require.Error(t, err)

	_, statErr := os.Stat(outside)
	require.NoError(t, statErr)
}
