package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// writerAPI abstracts kafka.Writer for testing.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes triage events.  It is safe for concurrent use.
type Producer struct {
	writer  writerAPI
	topic   string
	logger  logging.Logger
	metrics *promx.AppMetrics
	closed  atomic.Bool
}

// NewProducer builds a producer bound to the triage topic.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger, metrics *promx.AppMetrics) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: brokers are required")
	}
	if cfg.TriageTopic == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: triage_topic is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TriageTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}

	return &Producer{
		writer:  writer,
		topic:   cfg.TriageTopic,
		logger:  logger.Named("kafka_producer"),
		metrics: metrics,
	}, nil
}

// PublishTriageCompleted wraps the payload in an envelope and publishes it.
// The offense code keys the message so results for one offense stay ordered
// within a partition.
func (p *Producer) PublishTriageCompleted(ctx context.Context, payload TriageCompletedPayload) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeMessageQueueError, "kafka: producer closed")
	}

	env, err := NewEnvelope(EventTriageCompleted, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "kafka: envelope marshal failed")
	}

	msg := kafka.Message{
		Key:   []byte(payload.TopOffenseCode),
		Value: value,
		Time:  env.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.count("error")
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "kafka: publish failed")
	}
	p.count("ok")

	p.logger.Debug("triage event published",
		logging.String("event_id", env.EventID),
		logging.String("offense", payload.TopOffenseCode))
	return nil
}

func (p *Producer) count(status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.EventsPublishedTotal.WithLabelValues(p.topic, status).Inc()
}

// Close flushes buffered messages and shuts the writer down.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "kafka: writer close failed")
	}
	return nil
}
