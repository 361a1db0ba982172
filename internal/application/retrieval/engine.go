// Package retrieval implements similarity-based case retrieval: a query is
// embedded once, ranked against the cached corpus index by cosine
// similarity, and partitioned into an ordinary similar tier and a precedent
// tier gated by an explicit threshold.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/memindex"
	"github.com/lexintel/LexTriage/internal/intelligence/providers"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// RetrievedCase is a corpus case with its similarity to the query.
type RetrievedCase struct {
	legalcase.Case
	Similarity float64 `json:"similarity"`
}

// Result is a full retrieval response.  PrecedentCases is always a
// subsequence of the similarity ranking at pool size; SectionCases is the
// similarity-independent section lookup, present only when a filter was
// supplied.
type Result struct {
	SimilarCases   []RetrievedCase  `json:"similar_cases"`
	PrecedentCases []RetrievedCase  `json:"precedent_cases"`
	SectionCases   []legalcase.Case `json:"section_cases,omitempty"`
}

// Options tunes one search call.  PrecedentThreshold is required; there is
// no hidden default because deployments disagree on the right value.
type Options struct {
	TopK               int
	PrecedentThreshold float64
	PoolSize           int
}

// Deps wires the engine's ports.
type Deps struct {
	Corpus   legalcase.Corpus
	Embedder providers.Embedder
	Index    memindex.Index
	Logger   logging.Logger
	Metrics  *promx.AppMetrics
}

// Config holds the engine defaults applied when an Options field is zero.
type Config struct {
	DefaultTopK      int
	PrecedentPool    int
	SnapshotPath     string
	ProviderTimeout  time.Duration
	IndexBackendName string
}

// Engine ranks the case corpus against queries.
type Engine struct {
	deps Deps
	cfg  Config
}

// NewEngine validates the wiring and returns an engine.  Init must run
// before the first Search.
func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	if deps.Corpus == nil {
		return nil, errors.New(errors.ErrCodeValidation, "retrieval: corpus is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New(errors.ErrCodeValidation, "retrieval: embedder is required")
	}
	if deps.Index == nil {
		return nil, errors.New(errors.ErrCodeValidation, "retrieval: index is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	deps.Logger = deps.Logger.Named("retrieval")

	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	if cfg.PrecedentPool < 20 {
		cfg.PrecedentPool = 20
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.IndexBackendName == "" {
		cfg.IndexBackendName = "memory"
	}
	return &Engine{deps: deps, cfg: cfg}, nil
}

// Init embeds the whole corpus and builds the index, restoring from the
// configured snapshot when a valid one exists.  It is the one-time barrier
// before any Search.
func (e *Engine) Init(ctx context.Context) error {
	idx, ok := e.deps.Index.(*memindex.MemoryIndex)
	if ok && e.cfg.SnapshotPath != "" {
		err := idx.RestoreOrBuild(ctx, e.cfg.SnapshotPath, e.deps.Logger, e.embedCorpus)
		if err != nil {
			return err
		}
		e.observeIndexSize(ctx)
		return nil
	}

	ids, vectors, err := e.embedCorpus(ctx)
	if err != nil {
		return err
	}
	if err := e.deps.Index.Build(ctx, ids, vectors); err != nil {
		return err
	}
	e.observeIndexSize(ctx)
	return nil
}

// Ready reports whether the index behind the engine has been built.
func (e *Engine) Ready(ctx context.Context) bool {
	return e.deps.Index.Ready(ctx)
}

// embedCorpus loads every corpus case and embeds its narrative text.
func (e *Engine) embedCorpus(ctx context.Context) ([]string, [][]float32, error) {
	cases, err := e.deps.Corpus.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "retrieval: failed to load corpus")
	}
	if len(cases) == 0 {
		return nil, nil, errors.New(errors.ErrCodeRetrievalFailed, "retrieval: corpus is empty")
	}

	ids := make([]string, len(cases))
	texts := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = c.ID
		texts[i] = c.EmbeddingText()
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()
	vectors, err := e.deps.Embedder.Embed(embedCtx, texts)
	if err != nil {
		return nil, nil, err
	}
	e.deps.Logger.Info("case corpus embedded", logging.Int("cases", len(cases)))
	return ids, vectors, nil
}

// Search runs the full retrieval contract.  An empty query yields empty
// similarity tiers; the section lookup still runs when a filter is given.
func (e *Engine) Search(ctx context.Context, query string, filterCodes []string, opts Options) (*Result, error) {
	if opts.PrecedentThreshold < 0 || opts.PrecedentThreshold > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold,
			"retrieval: precedent threshold must be in [0,1], got %v", opts.PrecedentThreshold)
	}
	if opts.TopK < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidTopK, "retrieval: topK must not be negative, got %d", opts.TopK)
	}
	if opts.TopK == 0 {
		opts.TopK = e.cfg.DefaultTopK
	}
	if opts.PoolSize < e.cfg.PrecedentPool {
		opts.PoolSize = e.cfg.PrecedentPool
	}
	if opts.PoolSize < opts.TopK {
		opts.PoolSize = opts.TopK
	}

	start := time.Now()
	result := &Result{}

	if len(filterCodes) > 0 {
		sectionCases, err := e.sectionLookup(ctx, filterCodes)
		if err != nil {
			e.observeSearch("error", start)
			return nil, err
		}
		result.SectionCases = sectionCases
	}

	if strings.TrimSpace(query) == "" {
		e.observeSearch("ok", start)
		return result, nil
	}

	ranked, err := e.rank(ctx, query, filterCodes, opts.PoolSize)
	if err != nil {
		e.observeSearch("error", start)
		return nil, err
	}

	similar := ranked
	if opts.TopK < len(similar) {
		similar = similar[:opts.TopK]
	}
	result.SimilarCases = similar

	for _, rc := range ranked {
		if rc.Similarity >= opts.PrecedentThreshold {
			result.PrecedentCases = append(result.PrecedentCases, rc)
		}
	}

	e.observeSearch("ok", start)
	return result, nil
}

// rank embeds the query once and maps index hits back to corpus cases,
// dropping hits that fail the offense-code filter.
func (e *Engine) rank(ctx context.Context, query string, filterCodes []string, pool int) ([]RetrievedCase, error) {
	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	queryVecs, err := e.deps.Embedder.Embed(embedCtx, []string{query})
	cancel()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "retrieval: failed to embed query")
	}
	if len(queryVecs) != 1 {
		return nil, errors.Newf(errors.ErrCodeRetrievalFailed,
			"retrieval: expected 1 query vector, got %d", len(queryVecs))
	}

	hits, err := e.deps.Index.Search(ctx, queryVecs[0], pool)
	if err != nil {
		return nil, err
	}

	out := make([]RetrievedCase, 0, len(hits))
	for _, h := range hits {
		c, err := e.deps.Corpus.FindByID(ctx, h.ID)
		if err != nil {
			// An indexed ID missing from the corpus means the index is
			// stale; surface it rather than skipping silently.
			return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "retrieval: index references unknown case")
		}
		if !c.MatchesAnySection(filterCodes) {
			continue
		}
		out = append(out, RetrievedCase{Case: *c, Similarity: h.Score})
	}
	return out, nil
}

// sectionLookup is the similarity-independent filter path: every corpus case
// decided under at least one of the target codes, in corpus order.
func (e *Engine) sectionLookup(ctx context.Context, codes []string) ([]legalcase.Case, error) {
	cases, err := e.deps.Corpus.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "retrieval: failed to load corpus")
	}
	out := make([]legalcase.Case, 0)
	for _, c := range cases {
		if c.MatchesAnySection(codes) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (e *Engine) observeSearch(status string, start time.Time) {
	if e.deps.Metrics == nil {
		return
	}
	e.deps.Metrics.RetrievalTotal.WithLabelValues(status).Inc()
	e.deps.Metrics.RetrievalDuration.WithLabelValues().Observe(time.Since(start).Seconds())
}

func (e *Engine) observeIndexSize(ctx context.Context) {
	if e.deps.Metrics == nil {
		return
	}
	if n, err := e.deps.Index.Size(ctx); err == nil {
		e.deps.Metrics.IndexSize.WithLabelValues(e.cfg.IndexBackendName).Set(float64(n))
	}
}
