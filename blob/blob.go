package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/shipchain/services/shipment/config"
)

// Store is the blob-storage collaborator. The service persists only the
// returned reference, never the bytes.
type Store interface {
	Store(ctx context.Context, data []byte, mimeType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// diskStore implements Store on the local filesystem.
type diskStore struct {
	storagePath string
	baseURL     string
}

// NewDiskStore creates a filesystem-backed blob store.
func NewDiskStore(cfg config.Config) (Store, error) {
	if err := os.MkdirAll(cfg.BlobStoragePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &diskStore{
		storagePath: cfg.BlobStoragePath,
		baseURL:     strings.TrimRight(cfg.BlobBaseURL, "/"),
	}, nil
}

var extByMime = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"text/plain":      ".txt",
	"text/csv":        ".csv",
}

// Store writes the bytes to disk and returns a stable URL reference.
func (s *diskStore) Store(_ context.Context, data []byte, mimeType string) (string, error) {
	ext := extByMime[mimeType]
	if ext == "" {
		ext = ".bin"
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	filename := fmt.Sprintf("doc_%s_%s%s", timestamp, uuid.New().String(), ext)
	path := filepath.Join(s.storagePath, filename)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}

// Delete removes the blob the URL points at. A missing file is not an
// error; the reference may already have been cleaned up.
func (s *diskStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("url %q does not belong to this store", url)
	}
	filename := strings.TrimPrefix(url, s.baseURL+"/")
	// Reject path traversal in stored references.
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid document reference %q", url)
	}

	if err := os.Remove(filepath.Join(s.storagePath, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
