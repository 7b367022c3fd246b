package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/repository"
	"example.com/shipchain/services/shipment/service"
)

// Processor is the catch-up path of the reconciler: it periodically picks
// up lock confirmations that were recorded but not yet reconciled (e.g.
// the process died between ledger confirmation and reconciliation) and
// replays them. Reconciliation is idempotent, so racing the inline path
// or the message subscription is harmless.
type Processor struct {
	repo      repository.Repository
	svc       service.Service
	batchSize int
	interval  time.Duration
	running   bool
	mutex     sync.Mutex
	stopChan  chan struct{}
}

// NewProcessor creates a new catch-up processor.
func NewProcessor(repo repository.Repository, svc service.Service, batchSize int, interval time.Duration) *Processor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Processor{
		repo:      repo,
		svc:       svc,
		batchSize: batchSize,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the processor loop.
func (p *Processor) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.running {
		return
	}

	p.running = true
	go p.run()
}

// Stop stops the processor loop.
func (p *Processor) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.running {
		return
	}

	p.running = false
	p.stopChan <- struct{}{}
}

func (p *Processor) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(); err != nil {
				log.Error().Err(err).Msg("Failed to process confirmation batch")
			}
		case <-p.stopChan:
			return
		}
	}
}

// ProcessOnce runs a single catch-up pass. Exposed for the manual
// backfill path; it converges to the same state as the loop.
func (p *Processor) ProcessOnce() error {
	return p.processBatch()
}

func (p *Processor) processBatch() error {
	ctx := context.Background()

	confirmations, err := p.repo.GetUnprocessedLockConfirmations(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(confirmations) == 0 {
		return nil
	}

	log.Info().Msgf("Processing %d lock confirmations", len(confirmations))

	for _, c := range confirmations {
		if _, err := p.svc.Reconcile(ctx, c.ShipmentHash, c.TxRef, c.BlockRef); err != nil {
			log.Error().Err(err).
				Str("shipmentHash", c.ShipmentHash).
				Str("txRef", c.TxRef).
				Msg("Failed to reconcile lock confirmation")
			if err := p.repo.SetLockConfirmationError(ctx, c.TxRef, err.Error()); err != nil {
				log.Error().Err(err).Str("txRef", c.TxRef).Msg("Failed to record reconciliation error")
			}
			continue
		}

		if err := p.repo.MarkLockConfirmationProcessed(ctx, c.TxRef); err != nil {
			log.Error().Err(err).Str("txRef", c.TxRef).Msg("Failed to mark confirmation as processed")
		}
	}

	return nil
}
