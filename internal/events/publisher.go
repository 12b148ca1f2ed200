// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-insights-pipeline/internal/observability/metrics"
)

// Publisher publishes pipeline events to separate Kafka topics: role-tagged
// conversations ready for ingestion, and data-quality alerts.
type Publisher struct {
	writerConversation *kafka.Writer
	writerQuality      *kafka.Writer
	principal          string
	topicConversation  string
	topicQuality       string
	enabled            bool
	metrics            *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers           []string
	TopicConversation string
	TopicQuality      string
	Principal         string
	Enabled           bool
}

// New creates a new Kafka event publisher with separate topics for
// conversation and quality events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:         cfg.Principal,
			topicConversation: cfg.TopicConversation,
			topicQuality:      cfg.TopicQuality,
			enabled:           false,
			metrics:           m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerConversation := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicConversation,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerQuality := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicQuality,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicConversation", cfg.TopicConversation).
		Str("topicQuality", cfg.TopicQuality).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerConversation: writerConversation,
		writerQuality:      writerQuality,
		principal:          cfg.Principal,
		topicConversation:  cfg.TopicConversation,
		topicQuality:       cfg.TopicQuality,
		enabled:            true,
		metrics:            m,
	}
}

// PublishConversation publishes a conversation-tagged event.
func (p *Publisher) PublishConversation(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerConversation, p.topicConversation, "conversation", key, event)
}

// PublishQualityAlert publishes a data-quality alert event.
func (p *Publisher) PublishQualityAlert(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerQuality, p.topicQuality, "quality", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerConversation != nil {
		if e := p.writerConversation.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing conversation writer")
			err = e
		}
	}
	if p.writerQuality != nil {
		if e := p.writerQuality.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing quality writer")
			err = e
		}
	}
	return err
}
