package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

func nopLogger() logging.Logger { return logging.NewNopLogger() }

type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakeReader struct {
	messages  []kafka.Message
	pos       int
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.pos >= len(f.messages) {
		// Simulate a blocked fetch cancelled by the caller.
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.messages[f.pos]
	f.pos++
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func envelopeMessage(t *testing.T, eventType string, payload interface{}, offset int64) kafka.Message {
	t.Helper()
	env, err := NewEnvelope(eventType, payload)
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Value: value, Offset: offset}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventTriageCompleted, TriageCompletedPayload{CandidateCount: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EventTriageCompleted, env.EventType)
	assert.Equal(t, "lextriage", env.Source)
	assert.Equal(t, "1.0", env.SchemaVersion)

	var payload TriageCompletedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, 3, payload.CandidateCount)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	assert.Equal(t, errors.ErrCodeSerialization, errors.GetCode(err))

	_, err = DecodeEnvelope([]byte(`{"payload": {}}`))
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{TriageTopic: "t"}, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	_, err = NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestProducer_PublishTriageCompleted(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "lextriage.triage", logger: nopLogger()}

	err := p.PublishTriageCompleted(context.Background(), TriageCompletedPayload{
		TopOffenseCode: "IPC 379",
		TopConfidence:  1.0,
		CandidateCount: 5,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	assert.Equal(t, []byte("IPC 379"), writer.messages[0].Key)
	env, err := DecodeEnvelope(writer.messages[0].Value)
	require.NoError(t, err)
	assert.Equal(t, EventTriageCompleted, env.EventType)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "lextriage.triage", logger: nopLogger()}
	require.NoError(t, p.Close())
	assert.True(t, writer.closed)

	err := p.PublishTriageCompleted(context.Background(), TriageCompletedPayload{})
	assert.Equal(t, errors.ErrCodeMessageQueueError, errors.GetCode(err))
}

func TestIngestConsumer_Run(t *testing.T) {
	var handled []CaseIngestedPayload
	reader := &fakeReader{messages: []kafka.Message{
		envelopeMessage(t, EventCaseIngested, CaseIngestedPayload{ID: "CASE-1", Narrative: "stolen scooter"}, 0),
		{Value: []byte("garbage"), Offset: 1},
		envelopeMessage(t, EventTriageCompleted, TriageCompletedPayload{}, 2),
		envelopeMessage(t, EventCaseIngested, CaseIngestedPayload{ID: "CASE-2", Narrative: "cheque fraud"}, 3),
	}}

	c := &IngestConsumer{
		reader: reader,
		handler: func(_ context.Context, p CaseIngestedPayload) error {
			handled = append(handled, p)
			return nil
		},
		logger: nopLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	require.Len(t, handled, 2)
	assert.Equal(t, "CASE-1", handled[0].ID)
	assert.Equal(t, "CASE-2", handled[1].ID)
	// Garbage and foreign events are committed past, not retried.
	assert.Equal(t, []int64{0, 1, 2, 3}, reader.committed)
}

func TestIngestConsumer_HandlerErrorLeavesUncommitted(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		envelopeMessage(t, EventCaseIngested, CaseIngestedPayload{ID: "CASE-1", Narrative: "n"}, 0),
	}}

	c := &IngestConsumer{
		reader: reader,
		handler: func(_ context.Context, _ CaseIngestedPayload) error {
			return assert.AnError
		},
		logger: nopLogger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))
	assert.Empty(t, reader.committed)
}

func TestNewIngestConsumer_Validation(t *testing.T) {
	handler := func(_ context.Context, _ CaseIngestedPayload) error { return nil }

	_, err := NewIngestConsumer(config.KafkaConfig{IngestTopic: "t"}, handler, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	_, err = NewIngestConsumer(config.KafkaConfig{Brokers: []string{"b:9092"}}, handler, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	_, err = NewIngestConsumer(config.KafkaConfig{Brokers: []string{"b:9092"}, IngestTopic: "t"}, nil, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}
