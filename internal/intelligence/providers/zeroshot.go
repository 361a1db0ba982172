package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// HTTPZeroShot is a ZeroShotClassifier backed by an HTTP JSON inference
// endpoint compatible with the Hugging Face zero-shot pipeline contract.
type HTTPZeroShot struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
	metrics *promx.AppMetrics
}

// NewHTTPZeroShot builds a client for the given endpoint.  timeout bounds
// each request; it is the ensemble's degradation boundary for this scorer.
// metrics may be nil.
func NewHTTPZeroShot(baseURL string, timeout time.Duration, logger logging.Logger, metrics *promx.AppMetrics) *HTTPZeroShot {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPZeroShot{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("zeroshot"),
		metrics: metrics,
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ScoreLabels scores text against the candidate labels.  The endpoint returns
// labels sorted by score; the result is reordered to follow the input labels.
func (z *HTTPZeroShot) ScoreLabels(ctx context.Context, text string, labels []string) ([]LabelScore, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels, MultiLabel: true},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to encode zero-shot request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to build zero-shot request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	status := "error"
	defer func() { observeRequest(z.metrics, providerZeroShot, status, start) }()

	resp, err := z.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrCodeInferenceTimeout, "zero-shot inference timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "zero-shot provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable,
			"zero-shot provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out zeroShotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to decode zero-shot response")
	}
	if len(out.Labels) != len(out.Scores) {
		return nil, errors.Newf(errors.ErrCodeInferenceFailed,
			"zero-shot response mismatch: %d labels, %d scores", len(out.Labels), len(out.Scores))
	}

	z.logger.Debug("zero-shot inference complete",
		logging.Int("labels", len(labels)),
		logging.Duration("elapsed", time.Since(start)))

	byLabel := make(map[string]float64, len(out.Labels))
	for i, l := range out.Labels {
		byLabel[l] = out.Scores[i]
	}

	scores := make([]LabelScore, 0, len(labels))
	for _, l := range labels {
		s, ok := byLabel[l]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInferenceFailed, "zero-shot response missing label %q", l)
		}
		scores = append(scores, LabelScore{Label: l, Score: s})
	}
	status = "ok"
	return scores, nil
}

var _ ZeroShotClassifier = (*HTTPZeroShot)(nil)

// String identifies the client in logs.
func (z *HTTPZeroShot) String() string {
	return fmt.Sprintf("HTTPZeroShot(%s)", z.baseURL)
}
