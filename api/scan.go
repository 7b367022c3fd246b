package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/shipchain/services/shipment/service"
	"example.com/shipchain/services/shipment/utils"
)

// verifyScan processes a scanned container QR payload
func (s *Server) verifyScan(c *gin.Context) {
	var input service.ScanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeValidationError(c, err)
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := s.svc.VerifyScan(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	// Rejections are part of the contract: the scanning actor gets the
	// machine-readable reason with a 200, not an error envelope.
	c.JSON(http.StatusOK, result)
}
