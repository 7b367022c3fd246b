package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/models"
)

// AttachDocumentInput attaches a supporting document to a shipment. The
// bytes go to the blob store; only the returned reference is persisted.
type AttachDocumentInput struct {
	Name       string
	MimeType   string
	Data       []byte
	UploadedBy string
}

// AttachDocument stores the document bytes and records the reference.
func (s *service) AttachDocument(ctx context.Context, shipmentHash string, input AttachDocumentInput) (*models.Document, error) {
	if _, err := s.repo.FindShipmentByHash(ctx, shipmentHash); err != nil {
		return nil, err
	}

	url, err := s.blobs.Store(ctx, input.Data, input.MimeType)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		DocumentID:   uuid.New().String(),
		ShipmentHash: shipmentHash,
		Name:         input.Name,
		MimeType:     input.MimeType,
		URL:          url,
		UploadedBy:   input.UploadedBy,
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		// Avoid orphaned blobs when the reference cannot be persisted.
		if delErr := s.blobs.Delete(ctx, url); delErr != nil {
			log.Warn().Err(delErr).Str("url", url).Msg("Failed to clean up orphaned blob")
		}
		return nil, err
	}

	log.Info().
		Str("shipmentHash", shipmentHash).
		Str("documentID", doc.DocumentID).
		Msg("Document attached")

	return doc, nil
}

// ListDocuments lists the document references of a shipment.
func (s *service) ListDocuments(ctx context.Context, shipmentHash string) ([]*models.Document, error) {
	if _, err := s.repo.FindShipmentByHash(ctx, shipmentHash); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, shipmentHash)
}

// RemoveDocument deletes the reference and the stored blob.
func (s *service) RemoveDocument(ctx context.Context, documentID string) error {
	doc, err := s.repo.FindDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.URL); err != nil {
		log.Warn().Err(err).Str("url", doc.URL).Msg("Failed to delete blob; reference removed")
	}

	return nil
}
