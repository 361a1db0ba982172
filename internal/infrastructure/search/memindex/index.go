// Package memindex provides an in-memory dense-vector index with exact
// cosine-similarity search.  It is the default retrieval backend; the milvus
// adapter offers the same contract for corpora that outgrow a single
// process.
package memindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/lexintel/LexTriage/pkg/errors"
)

// Hit is one search result: an indexed ID with its cosine similarity to the
// query in [-1, 1].
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index is the vector index contract shared by the in-memory and milvus
// backends.
type Index interface {
	// Build atomically replaces the index contents.  ids and vectors are
	// parallel; all vectors must share one dimension.
	Build(ctx context.Context, ids []string, vectors [][]float32) error

	// Search returns the topK most similar entries by cosine similarity,
	// descending, with insertion order breaking ties.  Returns
	// errors.ErrCodeIndexNotInitialized before the first successful Build.
	Search(ctx context.Context, query []float32, topK int) ([]Hit, error)

	// Size returns the number of indexed vectors, zero before Build.
	Size(ctx context.Context) (int, error)

	// Ready reports whether the index has been built.
	Ready(ctx context.Context) bool
}

// MemoryIndex is an exact, insertion-ordered Index held entirely in memory.
// It is safe for concurrent use; Build swaps the contents atomically under
// the write lock so searches never observe a partial rebuild.
type MemoryIndex struct {
	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	norms   []float64
	dim     int
	ready   bool
}

// NewMemoryIndex returns an empty, not-yet-ready index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Build replaces the index contents.
func (m *MemoryIndex) Build(_ context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.Newf(errors.ErrCodeValidation,
			"memindex: %d ids but %d vectors", len(ids), len(vectors))
	}

	dim := 0
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) == 0 || len(v) != dim {
			return errors.Newf(errors.ErrCodeEmbeddingDimension,
				"memindex: vector %d has dimension %d, want %d", i, len(v), dim)
		}
		norms[i] = norm(v)
	}

	idsCopy := append([]string(nil), ids...)
	vecsCopy := make([][]float32, len(vectors))
	for i, v := range vectors {
		vecsCopy[i] = append([]float32(nil), v...)
	}

	m.mu.Lock()
	m.ids = idsCopy
	m.vectors = vecsCopy
	m.norms = norms
	m.dim = dim
	m.ready = true
	m.mu.Unlock()
	return nil
}

// Search returns the topK nearest entries by cosine similarity.
func (m *MemoryIndex) Search(_ context.Context, query []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidTopK, "memindex: topK must be positive, got %d", topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, errors.New(errors.ErrCodeIndexNotInitialized, "memindex: index not built")
	}
	if len(query) != m.dim {
		return nil, errors.Newf(errors.ErrCodeEmbeddingDimension,
			"memindex: query dimension %d, index dimension %d", len(query), m.dim)
	}

	qNorm := norm(query)
	hits := make([]Hit, len(m.ids))
	for i, v := range m.vectors {
		hits[i] = Hit{ID: m.ids[i], Score: cosine(query, qNorm, v, m.norms[i])}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Size returns the number of indexed vectors.
func (m *MemoryIndex) Size(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}

// Ready reports whether Build has completed at least once.
func (m *MemoryIndex) Ready(_ context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes the cosine similarity given precomputed norms.  Zero
// vectors yield similarity 0.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

var _ Index = (*MemoryIndex)(nil)
