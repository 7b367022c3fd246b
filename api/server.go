package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/service"
)

// Server is the HTTP server for the API
type Server struct {
	cfg        config.Config
	router     *gin.Engine
	httpServer *http.Server
	svc        service.Service
	nrApp      *newrelic.Application
}

// NewServer creates a new API server
func NewServer(cfg config.Config, svc service.Service, nrApp *newrelic.Application) *Server {
	server := &Server{
		cfg:    cfg,
		router: gin.New(),
		svc:    svc,
		nrApp:  nrApp,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware adds middleware to the router
func (s *Server) setupMiddleware() {
	if s.nrApp != nil {
		s.router.Use(nrgin.Middleware(s.nrApp))
	}

	// Add request ID middleware
	s.router.Use(RequestIDMiddleware())

	// Add CORS middleware
	if s.cfg.CorsEnabled {
		s.router.Use(CORSMiddleware())
	}

	// Add recovery middleware
	s.router.Use(gin.Recovery())

	// Add logging middleware
	s.router.Use(LoggingMiddleware())
}

// setupRoutes defines the API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// Stored documents are served straight from the blob directory.
	s.router.Static("/documents", s.cfg.BlobStoragePath)

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Shipment routes
	shipmentRoutes := v1.Group("/shipments")
	{
		shipmentRoutes.POST("", s.createShipment)
		shipmentRoutes.GET("", s.listShipments)
		shipmentRoutes.GET("/:hash", s.getShipment)
		shipmentRoutes.POST("/:hash/assignments", s.assignParty)
		shipmentRoutes.POST("/:hash/lock", s.lockShipment)
		shipmentRoutes.PATCH("/:hash/status", s.overrideStatus)
		shipmentRoutes.GET("/:hash/containers", s.listContainers)
		shipmentRoutes.POST("/:hash/concerns", s.raiseConcern)
		shipmentRoutes.GET("/:hash/concerns", s.listConcerns)
		shipmentRoutes.POST("/:hash/documents", s.attachDocument)
		shipmentRoutes.GET("/:hash/documents", s.listDocuments)
	}

	// Scan verification
	v1.POST("/scans", s.verifyScan)

	// Concern workflow transitions
	concernRoutes := v1.Group("/concerns")
	{
		concernRoutes.POST("/:id/acknowledge", s.acknowledgeConcern)
		concernRoutes.POST("/:id/resolve", s.resolveConcern)
		concernRoutes.POST("/:id/escalate", s.escalateConcern)
	}

	// Documents
	v1.DELETE("/documents/:id", s.removeDocument)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
