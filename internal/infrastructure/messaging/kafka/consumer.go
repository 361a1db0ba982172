package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// CaseHandler processes one ingested case.  Returning an error leaves the
// message uncommitted so it is retried after a rebalance or restart.
type CaseHandler func(ctx context.Context, payload CaseIngestedPayload) error

// readerAPI abstracts kafka.Reader for testing.
type readerAPI interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IngestConsumer pulls case.ingested events off the ingest topic and feeds
// them to a handler.  Malformed messages are logged and committed so a
// poison message cannot wedge the partition.
type IngestConsumer struct {
	reader  readerAPI
	handler CaseHandler
	logger  logging.Logger
	metrics *promx.AppMetrics
}

// NewIngestConsumer builds a consumer for the configured ingest topic.
func NewIngestConsumer(cfg config.KafkaConfig, handler CaseHandler, logger logging.Logger, metrics *promx.AppMetrics) (*IngestConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: brokers are required")
	}
	if cfg.IngestTopic == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: ingest_topic is required")
	}
	if handler == nil {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: handler is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.IngestTopic,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	return &IngestConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger.Named("kafka_consumer"),
		metrics: metrics,
	}, nil
}

// Run consumes until ctx is cancelled.
func (c *IngestConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessageQueueError, "kafka: fetch failed")
		}

		if err := c.process(ctx, msg); err != nil {
			c.count("error")
			c.logger.Error("case ingestion failed, message left uncommitted",
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			continue
		}
		c.count("ok")

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed", logging.Int64("offset", msg.Offset), logging.Err(err))
		}
	}
}

// process decodes and dispatches one message.  Decode failures are skipped
// by returning nil so the caller commits past them.
func (c *IngestConsumer) process(ctx context.Context, msg kafka.Message) error {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		c.logger.Warn("skipping undecodable message",
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return nil
	}
	if env.EventType != EventCaseIngested {
		c.logger.Debug("skipping event of foreign type", logging.String("event_type", env.EventType))
		return nil
	}

	var payload CaseIngestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		c.logger.Warn("skipping event with malformed payload",
			logging.String("event_id", env.EventID),
			logging.Err(err))
		return nil
	}

	return c.handler(ctx, payload)
}

func (c *IngestConsumer) count(status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.IngestTotal.WithLabelValues(status).Inc()
}

// Close shuts the reader down.
func (c *IngestConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "kafka: reader close failed")
	}
	return nil
}
