package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/shipchain/services/shipment/service"
	"example.com/shipchain/services/shipment/utils"
)

// raiseConcern opens a concern on a shipment
func (s *Server) raiseConcern(c *gin.Context) {
	var input service.RaiseConcernInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeValidationError(c, err)
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		writeValidationError(c, err)
		return
	}

	concern, err := s.svc.RaiseConcern(c.Request.Context(), c.Param("hash"), input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, concern)
}

// listConcerns lists the concerns of a shipment
func (s *Server) listConcerns(c *gin.Context) {
	concerns, err := s.svc.ListConcerns(c.Request.Context(), c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"concerns": concerns})
}

// acknowledgeConcern acknowledges an open concern
func (s *Server) acknowledgeConcern(c *gin.Context) {
	concern, err := s.svc.AcknowledgeConcern(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, concern)
}

type resolveConcernRequest struct {
	Resolution string `json:"resolution"`
}

// resolveConcern resolves an acknowledged concern
func (s *Server) resolveConcern(c *gin.Context) {
	var req resolveConcernRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	concern, err := s.svc.ResolveConcern(c.Request.Context(), c.Param("id"), req.Resolution)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, concern)
}

// escalateConcern escalates a concern
func (s *Server) escalateConcern(c *gin.Context) {
	concern, err := s.svc.EscalateConcern(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, concern)
}
