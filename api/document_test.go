package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/service"
)

// stubService fakes the one operation the upload handler drives.
type stubService struct {
	service.Service
	attached []service.AttachDocumentInput
}

func (s *stubService) AttachDocument(_ context.Context, shipmentHash string, input service.AttachDocumentInput) (*models.Document, error) {
	s.attached = append(s.attached, input)
	return &models.Document{
		DocumentID:   "doc-1",
		ShipmentHash: shipmentHash,
		Name:         input.Name,
	}, nil
}

func newDocumentRequest(t *testing.T, size int) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("document", "packing-list.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/SHP-abc/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAttachDocumentRejectsOversizeUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubService{}
	server := NewServer(config.Config{BlobStoragePath: t.TempDir()}, svc, nil)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, newDocumentRequest(t, maxDocumentSize+1))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Empty(t, svc.attached)
}

func TestAttachDocumentAcceptsSmallUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubService{}
	server := NewServer(config.Config{BlobStoragePath: t.TempDir()}, svc, nil)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, newDocumentRequest(t, 1024))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.attached, 1)
	require.Equal(t, "packing-list.pdf", svc.attached[0].Name)
}
