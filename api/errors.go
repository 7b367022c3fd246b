package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/ledger"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusForCode maps domain error codes to HTTP status codes. Validation
// problems are 400, conflicts 409, transition rejections 422, missing
// entities 404.
var statusForCode = map[string]int{
	domain.ErrCodeInvalidContainerSpec:  http.StatusBadRequest,
	domain.ErrCodeIncompleteAssignment:  http.StatusBadRequest,
	domain.ErrCodeMissingResolution:     http.StatusBadRequest,
	domain.ErrCodeDuplicateLock:         http.StatusConflict,
	domain.ErrCodeSigningDeclined:       http.StatusConflict,
	domain.ErrCodeContainersNotAdvanced: http.StatusConflict,
	domain.ErrCodeConcernBlocks:         http.StatusConflict,
	domain.ErrCodeUnknownContainer:      http.StatusNotFound,
	domain.ErrCodeShipmentNotFound:      http.StatusNotFound,
	domain.ErrCodeConcernNotFound:       http.StatusNotFound,
	domain.ErrCodeShipmentClosed:        http.StatusUnprocessableEntity,
	domain.ErrCodeRoleNotPermitted:      http.StatusUnprocessableEntity,
	domain.ErrCodeInvalidTransition:     http.StatusUnprocessableEntity,
}

// writeError maps an error to the response envelope.
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := statusForCode[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Message: de.Message, Code: de.Code})
		return
	}

	if errors.Is(err, ledger.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Ledger endpoint unavailable, retry later",
			Code:    "LEDGER_UNAVAILABLE",
		})
		return
	}

	// Log unknown errors
	log.Error().Err(err).Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

// writeValidationError reports a malformed request body or parameter.
func writeValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: err.Error(),
		Code:    "VALIDATION_ERROR",
	})
}
