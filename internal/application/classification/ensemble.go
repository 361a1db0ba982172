package classification

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/internal/intelligence/providers"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// Deps wires the classifier's ports.
type Deps struct {
	Catalog  offense.Catalog
	ZeroShot providers.ZeroShotClassifier
	Embedder providers.Embedder
	Logger   logging.Logger
	Metrics  *promx.AppMetrics
}

// Config tunes the ensemble.
type Config struct {
	Weights         Weights
	DefaultTopK     int
	ProviderTimeout time.Duration
}

// Service is the ensemble classifier.  It is safe for concurrent use; the
// offense embedding matrix is built once per catalog generation and cached.
type Service struct {
	deps Deps
	cfg  Config

	mu        sync.RWMutex
	embCodes  []string
	embMatrix [][]float32
	embBuilt  bool
	buildSF   singleflight.Group
}

// NewService validates the configuration and returns a classifier.
func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Catalog == nil {
		return nil, errors.New(errors.ErrCodeValidation, "classification: catalog is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	deps.Logger = deps.Logger.Named("classifier")

	w := cfg.Weights
	if w.Keyword < 0 || w.ZeroShot < 0 || w.Embedding < 0 {
		return nil, errors.New(errors.ErrCodeInvalidWeights, "classification: weights must be non-negative")
	}
	if w.Keyword+w.ZeroShot+w.Embedding == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWeights, "classification: at least one weight must be positive")
	}
	if cfg.DefaultTopK <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidTopK, "classification: default topK must be positive, got %d", cfg.DefaultTopK)
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}

	return &Service{deps: deps, cfg: cfg}, nil
}

// Classify runs the full ensemble.  topK <= 0 selects the configured
// default.  Provider failures degrade that scorer to zero contributions;
// an empty text or an empty merge yields an empty result, not an error.
func (s *Service) Classify(ctx context.Context, text string, keywords []string, topK int) ([]Candidate, error) {
	if topK < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidTopK, "classification: topK must not be negative, got %d", topK)
	}
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	start := time.Now()
	offenses, err := s.deps.Catalog.List(ctx)
	if err != nil {
		s.observeClassify("error", start, 0)
		return nil, errors.Wrap(err, errors.ErrCodeClassifyFailed, "classification: failed to load offense catalog")
	}
	if len(offenses) == 0 {
		s.observeClassify("empty", start, 0)
		return nil, nil
	}

	keywordScores := scoreKeywords(offenses, text, keywords, topK)

	var (
		wg        sync.WaitGroup
		zeroShot  []rawScore
		embedding []rawScore
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		zeroShot = s.runZeroShot(ctx, offenses, text, topK)
	}()
	go func() {
		defer wg.Done()
		embedding = s.runEmbedding(ctx, offenses, text, topK)
	}()
	wg.Wait()

	merged := s.merge(offenses, keywordScores, zeroShot, embedding, topK)
	s.observeClassify("ok", start, len(merged))
	return merged, nil
}

// runZeroShot scores every offense label with the external zero-shot
// provider, keeping the topK by native score.  Failures are absorbed.
func (s *Service) runZeroShot(ctx context.Context, offenses []*offense.Offense, text string, topK int) []rawScore {
	if s.deps.ZeroShot == nil || s.cfg.Weights.ZeroShot == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	labels := make([]string, len(offenses))
	codeByLabel := make(map[string]string, len(offenses))
	for i, o := range offenses {
		labels[i] = o.Label()
		codeByLabel[o.Label()] = o.Code
	}

	scores, err := s.deps.ZeroShot.ScoreLabels(ctx, text, labels)
	if err != nil {
		s.scorerDegraded(MethodZeroShot, err)
		return nil
	}

	out := make([]rawScore, 0, len(scores))
	for _, ls := range scores {
		out = append(out, rawScore{code: codeByLabel[ls.Label], score: ls.Score})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].score > out[b].score })
	if topK < len(out) {
		out = out[:topK]
	}
	return out
}

// runEmbedding ranks offenses by cosine similarity between the query
// embedding and the cached offense embedding matrix.  Failures are absorbed.
func (s *Service) runEmbedding(ctx context.Context, offenses []*offense.Offense, text string, topK int) []rawScore {
	if s.deps.Embedder == nil || s.cfg.Weights.Embedding == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	codes, matrix, err := s.offenseEmbeddings(ctx, offenses)
	if err != nil {
		s.scorerDegraded(MethodEmbedding, err)
		return nil
	}

	queryVecs, err := s.deps.Embedder.Embed(ctx, []string{text})
	if err != nil || len(queryVecs) != 1 {
		s.scorerDegraded(MethodEmbedding, err)
		return nil
	}
	query := queryVecs[0]

	out := make([]rawScore, 0, len(codes))
	for i, code := range codes {
		out = append(out, rawScore{code: code, score: cosine32(query, matrix[i])})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].score > out[b].score })
	if topK < len(out) {
		out = out[:topK]
	}
	return out
}

// offenseEmbeddings returns the cached offense embedding matrix, building it
// on first use.  singleflight collapses concurrent first builds into one
// provider call.
func (s *Service) offenseEmbeddings(ctx context.Context, offenses []*offense.Offense) ([]string, [][]float32, error) {
	s.mu.RLock()
	if s.embBuilt && len(s.embCodes) == len(offenses) {
		codes, matrix := s.embCodes, s.embMatrix
		s.mu.RUnlock()
		return codes, matrix, nil
	}
	s.mu.RUnlock()

	_, err, _ := s.buildSF.Do("offense-embeddings", func() (interface{}, error) {
		texts := make([]string, len(offenses))
		codes := make([]string, len(offenses))
		for i, o := range offenses {
			texts[i] = o.EmbeddingText()
			codes[i] = o.Code
		}
		matrix, err := s.deps.Embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.embCodes = codes
		s.embMatrix = matrix
		s.embBuilt = true
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embCodes, s.embMatrix, nil
}

// InvalidateEmbeddings drops the cached offense matrix.  Call after the
// catalog changes.
func (s *Service) InvalidateEmbeddings() {
	s.mu.Lock()
	s.embBuilt = false
	s.embCodes = nil
	s.embMatrix = nil
	s.mu.Unlock()
}

// merge runs the weighted accumulator.  Insertion order (keyword, then
// zero-shot, then embedding) is preserved so equal accumulated scores keep
// a deterministic rank.
func (s *Service) merge(offenses []*offense.Offense, keyword, zeroShot, embedding []rawScore, topK int) []Candidate {
	byCode := make(map[string]*offense.Offense, len(offenses))
	for _, o := range offenses {
		byCode[o.Code] = o
	}

	type entry struct {
		code    string
		score   float64
		methods []Method
	}
	acc := make(map[string]*entry)
	order := make([]string, 0, len(keyword)+len(zeroShot)+len(embedding))

	add := func(scores []rawScore, weight float64, method Method) {
		for _, rs := range scores {
			e, ok := acc[rs.code]
			if !ok {
				e = &entry{code: rs.code}
				acc[rs.code] = e
				order = append(order, rs.code)
			}
			e.score += rs.score * weight
			e.methods = append(e.methods, method)
		}
	}
	add(keyword, s.cfg.Weights.Keyword, MethodKeyword)
	add(zeroShot, s.cfg.Weights.ZeroShot, MethodZeroShot)
	add(embedding, s.cfg.Weights.Embedding, MethodEmbedding)

	if len(order) == 0 {
		return nil
	}

	// A scorer may legitimately contribute all-zero scores (e.g. a zero-shot
	// endpoint scoring every label at 0).  Zero accumulations are dropped so
	// the top returned candidate always renormalizes to exactly 1.
	entries := make([]*entry, 0, len(order))
	for _, code := range order {
		if acc[code].score > 0 {
			entries = append(entries, acc[code])
		}
	}
	if len(entries) == 0 {
		return nil
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].score > entries[b].score })
	if topK < len(entries) {
		entries = entries[:topK]
	}

	top := entries[0].score
	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		conf := e.score / top
		o := byCode[e.code]
		out = append(out, Candidate{
			OffenseCode:   e.code,
			Title:         o.Title,
			Description:   o.Description,
			PenaltyClause: o.PenaltyClause,
			Confidence:    conf,
			Methods:       e.methods,
		})
	}
	return out
}

func (s *Service) scorerDegraded(method Method, err error) {
	s.deps.Logger.Warn("scorer degraded to zero contributions",
		logging.String("method", string(method)), logging.Err(err))
	if s.deps.Metrics != nil {
		s.deps.Metrics.ScorerFailures.WithLabelValues(string(method)).Inc()
	}
}

func (s *Service) observeClassify(status string, start time.Time, candidates int) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.ClassifyTotal.WithLabelValues(status).Inc()
	s.deps.Metrics.ClassifyDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	s.deps.Metrics.CandidateCount.WithLabelValues().Observe(float64(candidates))
}

func cosine32(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
