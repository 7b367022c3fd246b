package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/config"
)

const sessionBatchSize = 10

// LedgerEventConsumer drains the ledger-events queue. The publisher keys
// sessions by shipment hash, so events for one shipment arrive in order
// within a session while distinct shipments fan out across sessions.
type LedgerEventConsumer struct {
	client    *azservicebus.Client
	queueName string
	processor MessageProcessor
}

// NewLedgerEventConsumer connects to Service Bus and binds the processor
// to the configured ledger-events queue.
func NewLedgerEventConsumer(cfg config.Config, processor MessageProcessor) (*LedgerEventConsumer, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.AzureQueueConnStr, nil)
	if err != nil {
		return nil, err
	}

	return &LedgerEventConsumer{
		client:    client,
		queueName: cfg.AzureLedgerEventQueueName,
		processor: processor,
	}, nil
}

// Run accepts sessions until ctx is cancelled. Cancellation is the
// normal shutdown path and returns nil; in-flight messages finish their
// current settle before the receiver closes.
func (c *LedgerEventConsumer) Run(ctx context.Context) error {
	log.Info().Str("queue", c.queueName).Msg("Consuming ledger events")

	for {
		receiver, err := c.client.AcceptNextSessionForQueue(ctx, c.queueName, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var sbErr *azservicebus.Error
			if errors.As(err, &sbErr) && sbErr.Code == azservicebus.CodeTimeout {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(2 * time.Second):
				}
				continue
			}
			return err
		}

		log.Info().Str("session", receiver.SessionID()).Str("queue", c.queueName).Msg("Ledger event session accepted")

		go c.drainSession(ctx, receiver)
	}
}

// drainSession settles one session's backlog: failed messages are
// abandoned for redelivery, everything else is completed.
func (c *LedgerEventConsumer) drainSession(ctx context.Context, receiver *azservicebus.SessionReceiver) {
	defer func() {
		// Close with a fresh context so shutdown still releases the
		// session lock after ctx is cancelled.
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Str("session", receiver.SessionID()).Msg("Failed to close session receiver")
		}
	}()

	for {
		messages, err := receiver.ReceiveMessages(ctx, sessionBatchSize, nil)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("session", receiver.SessionID()).Msg("Failed to receive ledger events")
			}
			return
		}
		if len(messages) == 0 {
			return
		}

		for _, message := range messages {
			if err := c.processor.ProcessMessage(ctx, message); err != nil {
				log.Error().Err(err).Str("messageID", message.MessageID).Msg("Failed to process ledger event")
				if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Str("messageID", message.MessageID).Msg("Failed to abandon ledger event")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("messageID", message.MessageID).Msg("Failed to complete ledger event")
			}
		}
	}
}
