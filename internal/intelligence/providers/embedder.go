package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// Provider labels for request metrics.
const (
	providerEmbedder = "embedder"
	providerZeroShot = "zeroshot"
)

// HTTPEmbedder is an Embedder backed by an HTTP JSON sentence-embedding
// endpoint.  The endpoint accepts a batch of texts and returns one vector
// per text.
type HTTPEmbedder struct {
	baseURL   string
	dimension int
	client    *http.Client
	logger    logging.Logger
	metrics   *promx.AppMetrics
}

// NewHTTPEmbedder builds a client for the given endpoint.  dimension is the
// vector size the endpoint produces; responses with a different dimension
// are rejected.  metrics may be nil.
func NewHTTPEmbedder(baseURL string, dimension int, timeout time.Duration, logger logging.Logger, metrics *promx.AppMetrics) *HTTPEmbedder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPEmbedder{
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.Named("embedder"),
		metrics:   metrics,
	}
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one vector per input text, in input order.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to build embedding request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	status := "error"
	defer func() { observeRequest(e.metrics, providerEmbedder, status, start) }()

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrCodeInferenceTimeout, "embedding inference timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "embedding provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeProviderUnavailable,
			"embedding provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to decode embedding response")
	}
	if len(out.Embeddings) != len(texts) {
		return nil, errors.Newf(errors.ErrCodeInferenceFailed,
			"embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(out.Embeddings))
	}
	for i, vec := range out.Embeddings {
		if len(vec) != e.dimension {
			return nil, errors.Newf(errors.ErrCodeEmbeddingDimension,
				"vector %d has dimension %d, want %d", i, len(vec), e.dimension)
		}
	}

	e.logger.Debug("embedding inference complete",
		logging.Int("texts", len(texts)),
		logging.Duration("elapsed", time.Since(start)))

	status = "ok"
	return out.Embeddings, nil
}

func observeRequest(m *promx.AppMetrics, provider, status string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// Dimension returns the configured embedding dimension.
func (e *HTTPEmbedder) Dimension() int { return e.dimension }

var _ Embedder = (*HTTPEmbedder)(nil)
