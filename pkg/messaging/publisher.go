package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/medforge/careinsight/pkg/conversation"
	"github.com/medforge/careinsight/pkg/corpus"
	"github.com/medforge/careinsight/pkg/metrics"
	"github.com/medforge/careinsight/pkg/spotlight"
)

// Envelope wraps every outbound analytics record with its kind and a
// publish timestamp.
type Envelope struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher pushes analysis output onto the analytics queue for
// downstream dashboards and data stores.
type Publisher struct {
	client *Client
	logger *logrus.Entry
}

// NewPublisher creates an analytics publisher on the given client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{
		client: client,
		logger: client.logger.WithField("role", "publisher"),
	}
}

// PublishAnalytics publishes one analyzed conversation.
func (p *Publisher) PublishAnalytics(a *conversation.Analytics) error {
	return p.publish("conversation_analytics", a)
}

// PublishMetrics publishes a corpus aggregation snapshot.
func (p *Publisher) PublishMetrics(m *corpus.Metrics) error {
	return p.publish("corpus_metrics", m)
}

// PublishSpotlights publishes a generated spotlight set.
func (p *Publisher) PublishSpotlights(spots []spotlight.Spotlight) error {
	return p.publish("spotlights", spots)
}

func (p *Publisher) publish(kind string, payload interface{}) error {
	if !p.client.IsConnected() {
		metrics.CountPublishError()
		return fmt.Errorf("not connected to AMQP server")
	}

	body, err := json.Marshal(Envelope{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		metrics.CountPublishError()
		return fmt.Errorf("failed to marshal %s record: %w", kind, err)
	}

	p.client.connMutex.RLock()
	channel := p.client.channel
	queue := p.client.config.AnalyticsQueue
	p.client.connMutex.RUnlock()

	if channel == nil || queue == "" {
		metrics.CountPublishError()
		return fmt.Errorf("analytics queue not available")
	}

	err = channel.Publish(
		p.client.config.ExchangeName,
		queue,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		metrics.CountPublishError()
		return fmt.Errorf("failed to publish %s record: %w", kind, err)
	}

	metrics.CountPublished(kind)
	p.logger.WithField("kind", kind).Debug("Published analytics record")
	return nil
}
