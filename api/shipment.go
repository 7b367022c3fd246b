package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
	"example.com/shipchain/services/shipment/service"
	"example.com/shipchain/services/shipment/utils"
)

// ShipmentResponse is the API view of a shipment. Status is the
// effective status, which surfaces CONCERN_RAISED while concerns are
// unresolved.
type ShipmentResponse struct {
	ShipmentHash         string  `json:"shipment_hash"`
	BatchID              string  `json:"batch_id"`
	SupplierWallet       string  `json:"supplier_wallet"`
	NumberOfContainers   int     `json:"number_of_containers"`
	QuantityPerContainer int     `json:"quantity_per_container"`
	TotalQuantity        int     `json:"total_quantity"`
	Status               string  `json:"status"`
	LifecycleStatus      string  `json:"lifecycle_status"`
	LedgerTxRef          *string `json:"ledger_tx_ref"`
	LedgerBlockRef       *string `json:"ledger_block_ref"`
	TransporterWallet    *string `json:"transporter_wallet"`
	TransporterName      *string `json:"transporter_name"`
	WarehouseWallet      *string `json:"warehouse_wallet"`
	WarehouseName        *string `json:"warehouse_name"`
}

func toShipmentResponse(s *models.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ShipmentHash:         s.ShipmentHash,
		BatchID:              s.BatchID,
		SupplierWallet:       s.SupplierWallet,
		NumberOfContainers:   s.NumberOfContainers,
		QuantityPerContainer: s.QuantityPerContainer,
		TotalQuantity:        s.TotalQuantity,
		Status:               s.EffectiveStatus(),
		LifecycleStatus:      s.Status,
		LedgerTxRef:          s.LedgerTxRef,
		LedgerBlockRef:       s.LedgerBlockRef,
		TransporterWallet:    s.TransporterWallet,
		TransporterName:      s.TransporterName,
		WarehouseWallet:      s.WarehouseWallet,
		WarehouseName:        s.WarehouseName,
	}
}

// createShipment creates a draft shipment
func (s *Server) createShipment(c *gin.Context) {
	var input service.CreateShipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeValidationError(c, err)
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		writeValidationError(c, err)
		return
	}

	shipment, err := s.svc.CreateShipment(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShipmentResponse(shipment))
}

// listShipments lists shipments filtered by role/wallet/status
func (s *Server) listShipments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := repository.ShipmentFilter{
		Role:   c.Query("role"),
		Wallet: c.Query("wallet"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	shipments, total, err := s.svc.ListShipments(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]ShipmentResponse, len(shipments))
	for i, shipment := range shipments {
		responses[i] = toShipmentResponse(shipment)
	}

	c.JSON(http.StatusOK, gin.H{
		"shipments": responses,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// getShipment returns a shipment by hash
func (s *Server) getShipment(c *gin.Context) {
	shipment, err := s.svc.GetShipment(c.Request.Context(), c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// assignParty assigns the transporter or warehouse
func (s *Server) assignParty(c *gin.Context) {
	var input service.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeValidationError(c, err)
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		writeValidationError(c, err)
		return
	}

	shipment, err := s.svc.AssignParty(c.Request.Context(), c.Param("hash"), input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// lockShipment runs the lock protocol for a shipment
func (s *Server) lockShipment(c *gin.Context) {
	receipt, err := s.svc.LockShipment(c.Request.Context(), c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_ref":    receipt.TxRef,
		"block_ref": receipt.BlockRef,
	})
}

type overrideStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// overrideStatus patches the shipment status directly
func (s *Server) overrideStatus(c *gin.Context) {
	var req overrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeValidationError(c, err)
		return
	}

	shipment, err := s.svc.OverrideShipmentStatus(c.Request.Context(), c.Param("hash"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// listContainers lists the containers of a shipment
func (s *Server) listContainers(c *gin.Context) {
	containers, err := s.svc.ListContainers(c.Request.Context(), c.Param("hash"), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"containers": containers})
}
