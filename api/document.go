package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/shipchain/services/shipment/service"
)

const maxDocumentSize = 32 << 20 // 32 MB

// attachDocument uploads a supporting document for a shipment
func (s *Server) attachDocument(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxDocumentSize); err != nil {
		writeValidationError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to get document file",
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	defer file.Close()

	// Read one byte past the limit to tell an oversize upload apart from
	// one that is exactly at it.
	data, err := io.ReadAll(io.LimitReader(file, maxDocumentSize+1))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(data) > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "Document exceeds the 32 MB limit",
			Code:    "DOCUMENT_TOO_LARGE",
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	doc, err := s.svc.AttachDocument(c.Request.Context(), c.Param("hash"), service.AttachDocumentInput{
		Name:       header.Filename,
		MimeType:   mimeType,
		Data:       data,
		UploadedBy: c.GetHeader("X-Wallet-Address"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// listDocuments lists the document references of a shipment
func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.svc.ListDocuments(c.Request.Context(), c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// removeDocument deletes a document reference and its blob
func (s *Server) removeDocument(c *gin.Context) {
	if err := s.svc.RemoveDocument(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document removed"})
}
