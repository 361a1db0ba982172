// Package triage orchestrates the full incident pipeline: offense
// classification, penalty estimation over the ranked candidates, and case
// retrieval filtered by the candidate offense codes.
package triage

import (
	"context"
	"strings"
	"time"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/application/penalty"
	"github.com/lexintel/LexTriage/internal/application/retrieval"
	"github.com/lexintel/LexTriage/internal/infrastructure/messaging/kafka"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// Request is one incident to triage.
type Request struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords,omitempty"`
	Actions  []string `json:"actions,omitempty"`
	Amounts  []string `json:"amounts,omitempty"`

	// TopK bounds the candidate list; zero selects the classifier default.
	TopK int `json:"top_k,omitempty"`
	// RetrievalTopK bounds the similar-case tier; zero selects the engine
	// default.
	RetrievalTopK int `json:"retrieval_top_k,omitempty"`
	// PrecedentThreshold gates the precedent tier.
	PrecedentThreshold float64 `json:"precedent_threshold"`
}

// Report is the combined triage outcome.
type Report struct {
	Candidates []classification.Candidate `json:"candidates"`
	Penalties  []penalty.Estimate         `json:"penalties"`
	Cases      *retrieval.Result          `json:"cases"`
	Elapsed    time.Duration              `json:"elapsed"`
}

// EventPublisher receives completed-triage notifications.  A nil publisher
// disables eventing.
type EventPublisher interface {
	PublishTriageCompleted(ctx context.Context, payload kafka.TriageCompletedPayload) error
}

// Deps wires the pipeline stages.
type Deps struct {
	Classifier *classification.Service
	Estimator  *penalty.Service
	Engine     *retrieval.Engine
	Publisher  EventPublisher
	Logger     logging.Logger
	Metrics    *promx.AppMetrics
}

// Service runs the triage pipeline.
type Service struct {
	deps Deps
}

// NewService validates the wiring and returns the pipeline.
func NewService(deps Deps) (*Service, error) {
	if deps.Classifier == nil {
		return nil, errors.New(errors.ErrCodeValidation, "triage: classifier is required")
	}
	if deps.Estimator == nil {
		return nil, errors.New(errors.ErrCodeValidation, "triage: estimator is required")
	}
	if deps.Engine == nil {
		return nil, errors.New(errors.ErrCodeValidation, "triage: retrieval engine is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	deps.Logger = deps.Logger.Named("triage")
	return &Service{deps: deps}, nil
}

// Triage runs classification, penalty estimation and case retrieval for one
// incident.  A publish failure is logged, never surfaced; the report is
// already complete at that point.
func (s *Service) Triage(ctx context.Context, req Request) (*Report, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.InvalidParam("triage: incident text is required")
	}

	start := time.Now()

	candidates, err := s.deps.Classifier.Classify(ctx, req.Text, req.Keywords, req.TopK)
	if err != nil {
		return nil, err
	}

	pctx := penalty.Context{
		Text:     req.Text,
		Keywords: req.Keywords,
		Actions:  req.Actions,
		Amounts:  req.Amounts,
	}
	penalties := s.deps.Estimator.Summarize(ctx, candidates, pctx)

	filterCodes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		filterCodes = append(filterCodes, c.OffenseCode)
	}

	cases, err := s.deps.Engine.Search(ctx, req.Text, filterCodes, retrieval.Options{
		TopK:               req.RetrievalTopK,
		PrecedentThreshold: req.PrecedentThreshold,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Candidates: candidates,
		Penalties:  penalties,
		Cases:      cases,
		Elapsed:    time.Since(start),
	}

	s.publish(ctx, req, report)
	s.observe(report)

	s.deps.Logger.Info("incident triaged",
		logging.Int("candidates", len(candidates)),
		logging.Int("similar_cases", len(cases.SimilarCases)),
		logging.Int("precedents", len(cases.PrecedentCases)),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (s *Service) publish(ctx context.Context, req Request, report *Report) {
	if s.deps.Publisher == nil {
		return
	}

	payload := kafka.TriageCompletedPayload{
		IncidentText:   req.Text,
		CandidateCount: len(report.Candidates),
		SimilarCount:   len(report.Cases.SimilarCases),
		PrecedentCount: len(report.Cases.PrecedentCases),
		CompletedAt:    time.Now().UTC(),
		DurationMillis: report.Elapsed.Milliseconds(),
	}
	if len(report.Candidates) > 0 {
		payload.TopOffenseCode = report.Candidates[0].OffenseCode
		payload.TopConfidence = report.Candidates[0].Confidence
	}
	if len(report.Penalties) > 0 {
		payload.PenaltySummary = report.Penalties[0].Summary
	}

	if err := s.deps.Publisher.PublishTriageCompleted(ctx, payload); err != nil {
		s.deps.Logger.Warn("triage event publish failed", logging.Err(err))
	}
}

func (s *Service) observe(report *Report) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.TriageTotal.WithLabelValues("ok").Inc()
	s.deps.Metrics.TriageDuration.WithLabelValues().Observe(report.Elapsed.Seconds())
}
