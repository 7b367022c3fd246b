package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/shipchain/services/shipment/api"
	"example.com/shipchain/services/shipment/blob"
	"example.com/shipchain/services/shipment/cache"
	"example.com/shipchain/services/shipment/ledger"
	"example.com/shipchain/services/shipment/messaging"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
	"example.com/shipchain/services/shipment/service"
	"example.com/shipchain/services/shipment/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Auto migrate tables
	if cfg.EnableMigrations {
		err = db.AutoMigrate(
			&models.Shipment{},
			&models.Container{},
			&models.Concern{},
			&models.Document{},
			&models.LockConfirmation{},
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	repo := repository.NewGormRepository(db)

	// Initialize ledger gateway client
	ledgerClient, err := ledger.NewHTTPClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger client")
	}

	// Initialize blob store
	blobStore, err := blob.NewDiskStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob store")
	}

	opts := []service.Option{}

	// Redis cache is optional
	if cfg.RedisEnabled {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		opts = append(opts, service.WithCache(redisClient))
	}

	svc := service.NewService(repo, ledgerClient, blobStore, cfg, opts...)

	// Start the ledger-event consumer when a connection string is set
	var stopConsumer context.CancelFunc
	if cfg.AzureQueueConnStr != "" {
		consumer, err := messaging.NewLedgerEventConsumer(cfg, messaging.NewProcessor(svc))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
		}

		var consumerCtx context.Context
		consumerCtx, stopConsumer = context.WithCancel(context.Background())
		go func() {
			if err := consumer.Run(consumerCtx); err != nil {
				log.Fatal().Err(err).Msg("Ledger event consumer failed")
			}
		}()
	}

	// Optional New Relic telemetry
	nrApp, err := telemetry.InitNewRelic(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize New Relic")
	}

	// Initialize server
	server := api.NewServer(cfg, svc, nrApp)

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop accepting new ledger event sessions
	if stopConsumer != nil {
		stopConsumer()
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
