package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/shipchain/services/shipment/blob"
	"example.com/shipchain/services/shipment/ledger"
	"example.com/shipchain/services/shipment/models"
	"example.com/shipchain/services/shipment/repository"
	"example.com/shipchain/services/shipment/search"
	"example.com/shipchain/services/shipment/service"
	"example.com/shipchain/services/shipment/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the reconciliation worker",
	Run:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting worker")

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

	// Initialize Elasticsearch client
	esClient, err := search.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Elasticsearch")
	}
	if err := esClient.EnsureIndices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure Elasticsearch indices")
	}

	svc := service.NewService(repo, ledgerClient, blobStore, cfg, service.WithIndexer(esClient))

	// Initialize and start the catch-up processor
	processor := worker.NewProcessor(repo, svc, cfg.WorkerBatchSize, cfg.WorkerInterval)
	processor.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")

	// Shutdown processor gracefully
	processor.Stop()

	log.Info().Msg("Worker exited properly")
}
