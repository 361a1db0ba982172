// Package kafka carries the platform's two event flows: triage results out,
// case ingestion in.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// Event types carried in the envelope.
const (
	EventTriageCompleted = "triage.completed"
	EventCaseIngested    = "case.ingested"
)

const schemaVersion = "1.0"

// EventEnvelope is the wire format shared by every topic.  Payload stays raw
// so consumers decode only the event types they handle.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// TriageCompletedPayload summarizes one finished triage run.
type TriageCompletedPayload struct {
	IncidentText    string    `json:"incident_text"`
	TopOffenseCode  string    `json:"top_offense_code,omitempty"`
	TopConfidence   float64   `json:"top_confidence,omitempty"`
	CandidateCount  int       `json:"candidate_count"`
	PrecedentCount  int       `json:"precedent_count"`
	SimilarCount    int       `json:"similar_count"`
	PenaltySummary  string    `json:"penalty_summary,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationMillis  int64     `json:"duration_millis"`
}

// CaseIngestedPayload announces a new case for the corpus.  The consumer
// validates and saves it, then schedules an index rebuild.
type CaseIngestedPayload struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Narrative string     `json:"narrative"`
	Sections  []string   `json:"sections,omitempty"`
	Outcome   string     `json:"outcome,omitempty"`
	Court     string     `json:"court,omitempty"`
	DecidedOn *time.Time `json:"decided_on,omitempty"`
}

// NewEnvelope wraps a payload for publishing.
func NewEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "kafka: payload marshal failed")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        "lextriage",
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

// DecodeEnvelope parses an envelope from raw message bytes.
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "kafka: envelope decode failed")
	}
	if env.EventType == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: envelope missing event_type")
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into out.
func (e *EventEnvelope) DecodePayload(out interface{}) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "kafka: payload decode failed")
	}
	return nil
}
