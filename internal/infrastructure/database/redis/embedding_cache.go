package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/internal/intelligence/providers"
)

const cacheName = "embedding"

// CachedEmbedder is a read-through cache in front of an embedding provider.
// Vectors are keyed by a hash of the input text, so identical texts across
// requests and processes hit the cache.  Cache failures degrade to direct
// provider calls; they never fail the embedding request.
type CachedEmbedder struct {
	client  *Client
	inner   providers.Embedder
	prefix  string
	ttl     time.Duration
	logger  logging.Logger
	metrics *promx.AppMetrics
	sf      singleflight.Group
}

// NewCachedEmbedder wraps inner with a Redis cache.  prefix namespaces the
// keys (e.g. "lextriage:"); ttl of zero means no expiry.
func NewCachedEmbedder(client *Client, inner providers.Embedder, prefix string, ttl time.Duration,
	logger logging.Logger, metrics *promx.AppMetrics) *CachedEmbedder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedEmbedder{
		client:  client,
		inner:   inner,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger.Named("embedding-cache"),
		metrics: metrics,
	}
}

// Embed returns one vector per text, serving from cache where possible and
// calling the inner provider only for misses.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))

	cached, err := c.client.MGet(ctx, keys...)
	if err != nil {
		c.logger.Warn("cache read failed, falling through to provider", logging.Err(err))
		return c.inner.Embed(ctx, texts)
	}
	for i, raw := range cached {
		vec, ok := decodeVector(raw)
		if ok && len(vec) == c.inner.Dimension() {
			out[i] = vec
			c.hit()
			continue
		}
		missIdx = append(missIdx, i)
		c.miss()
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}

	vectors, err := c.embedMisses(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	fresh := make(map[string][]byte, len(missIdx))
	for j, i := range missIdx {
		out[i] = vectors[j]
		if data, err := json.Marshal(vectors[j]); err == nil {
			fresh[keys[i]] = data
		}
	}
	if err := c.client.SetBatch(ctx, fresh, c.ttl); err != nil {
		c.logger.Warn("cache write failed", logging.Err(err))
	}
	return out, nil
}

// embedMisses collapses concurrent identical miss batches into one provider
// call.
func (c *CachedEmbedder) embedMisses(ctx context.Context, texts []string) ([][]float32, error) {
	sfKey := fmt.Sprintf("%x", sha256.Sum256([]byte(fmt.Sprint(texts))))
	v, err, _ := c.sf.Do(sfKey, func() (interface{}, error) {
		return c.inner.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

// Dimension returns the inner provider's embedding dimension.
func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + "emb:" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(cacheName).Inc()
	}
}

func (c *CachedEmbedder) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cacheName).Inc()
	}
}

func decodeVector(raw interface{}) ([]float32, bool) {
	if raw == nil {
		return nil, false
	}
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, false
	}
	return vec, true
}

var _ providers.Embedder = (*CachedEmbedder)(nil)
