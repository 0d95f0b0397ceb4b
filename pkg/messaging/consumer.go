package messaging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TranscriptHandler processes one decoded transcript. Returning an error
// requeues the delivery once; a second failure drops it.
type TranscriptHandler func(ctx context.Context, msg *TranscriptMessage) error

// Consumer pulls transcript messages off the intake queue and hands them
// to the analysis pipeline.
type Consumer struct {
	client  *Client
	logger  *logrus.Entry
	handler TranscriptHandler
}

// NewConsumer creates a transcript consumer on the given client.
func NewConsumer(client *Client, handler TranscriptHandler) *Consumer {
	return &Consumer{
		client:  client,
		logger:  client.logger.WithField("role", "consumer"),
		handler: handler,
	}
}

// Run consumes until the context is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	c.client.connMutex.RLock()
	channel := c.client.channel
	queue := c.client.config.TranscriptQueue
	c.client.connMutex.RUnlock()

	if channel == nil {
		return fmt.Errorf("not connected to AMQP server")
	}
	if queue == "" {
		return fmt.Errorf("transcript queue not configured")
	}

	deliveries, err := channel.Consume(
		queue,
		"careinsight", // Consumer tag
		false,         // Auto-ack
		false,         // Exclusive
		false,         // No-local
		false,         // No-wait
		nil,           // Arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", queue, err)
	}

	c.logger.WithField("queue", queue).Info("Consuming transcripts")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			msg, err := DecodeTranscript(delivery.Body)
			if err != nil {
				// Malformed payloads can never succeed; drop without requeue.
				c.logger.WithError(err).Warn("Dropping undecodable transcript message")
				delivery.Nack(false, false)
				continue
			}

			if err := c.handler(ctx, msg); err != nil {
				c.logger.WithError(err).WithField("conversation_id", msg.ConversationID).
					Error("Transcript handler failed")
				delivery.Nack(false, !delivery.Redelivered)
				continue
			}

			delivery.Ack(false)
		}
	}
}
