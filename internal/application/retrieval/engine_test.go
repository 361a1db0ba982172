package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/memindex"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// fakeEmbedder maps known texts to fixed unit vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func testCorpus(t *testing.T) legalcase.Corpus {
	t.Helper()
	ctx := context.Background()
	corpus := legalcase.NewMemoryCorpus()

	cases := []struct {
		id, narrative string
		sections      []string
	}{
		{"case-theft-1", "accused stole a mobile phone from the victim's bag", []string{"IPC 379"}},
		{"case-theft-2", "accused stole jewellery from a locked house", []string{"IPC 379", "IPC 457"}},
		{"case-murder-1", "accused fatally stabbed the victim after a quarrel", []string{"IPC 302"}},
		{"case-assault-1", "accused struck the complainant with a stick", []string{"IPC 323"}},
	}
	for _, c := range cases {
		rec, err := legalcase.New(c.id, "", c.narrative, "", c.sections)
		require.NoError(t, err)
		require.NoError(t, corpus.Save(ctx, rec))
	}
	return corpus
}

func testEmbedder(t *testing.T, corpus legalcase.Corpus) *fakeEmbedder {
	t.Helper()
	all, err := corpus.List(context.Background())
	require.NoError(t, err)

	vectors := map[string][]float32{
		"phone theft query": {1, 0, 0},
	}
	for _, c := range all {
		switch c.ID {
		case "case-theft-1":
			vectors[c.EmbeddingText()] = []float32{1, 0, 0}
		case "case-theft-2":
			vectors[c.EmbeddingText()] = []float32{0.9, 0.1, 0}
		case "case-murder-1":
			vectors[c.EmbeddingText()] = []float32{0, 1, 0}
		case "case-assault-1":
			vectors[c.EmbeddingText()] = []float32{0.5, 0.5, 0}
		}
	}
	return &fakeEmbedder{vectors: vectors}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	corpus := testCorpus(t)
	emb := testEmbedder(t, corpus)
	eng, err := NewEngine(Deps{
		Corpus:   corpus,
		Embedder: emb,
		Index:    memindex.NewMemoryIndex(),
	}, Config{DefaultTopK: 3})
	require.NoError(t, err)
	require.NoError(t, eng.Init(context.Background()))
	return eng
}

func TestSearch_RankedBySimilarity(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Search(context.Background(), "phone theft query", nil, Options{
		TopK:               3,
		PrecedentThreshold: 0.85,
	})
	require.NoError(t, err)

	require.Len(t, res.SimilarCases, 3)
	assert.Equal(t, "case-theft-1", res.SimilarCases[0].ID)
	assert.Equal(t, "case-theft-2", res.SimilarCases[1].ID)
	assert.InDelta(t, 1.0, res.SimilarCases[0].Similarity, 1e-6)

	for i := 1; i < len(res.SimilarCases); i++ {
		assert.LessOrEqual(t, res.SimilarCases[i].Similarity, res.SimilarCases[i-1].Similarity)
	}
}

func TestSearch_PrecedentTier(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Search(context.Background(), "phone theft query", nil, Options{
		TopK:               4,
		PrecedentThreshold: 0.85,
	})
	require.NoError(t, err)

	// Only the two theft cases clear 0.85.
	require.Len(t, res.PrecedentCases, 2)
	for _, p := range res.PrecedentCases {
		assert.GreaterOrEqual(t, p.Similarity, 0.85)
	}

	// Precedents are a subsequence of the similarity ranking.
	ids := make(map[string]struct{})
	for _, s := range res.SimilarCases {
		ids[s.ID] = struct{}{}
	}
	for _, p := range res.PrecedentCases {
		_, ok := ids[p.ID]
		assert.True(t, ok)
	}
}

func TestSearch_SectionFilterIntersectsSimilarity(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Search(context.Background(), "phone theft query", []string{"IPC 379"}, Options{
		TopK:               3,
		PrecedentThreshold: 0.85,
	})
	require.NoError(t, err)

	require.Len(t, res.SimilarCases, 2)
	for _, s := range res.SimilarCases {
		assert.Contains(t, s.Sections, "IPC 379")
	}

	// The standalone section lookup comes back in corpus order.
	require.Len(t, res.SectionCases, 2)
	assert.Equal(t, "case-theft-1", res.SectionCases[0].ID)
	assert.Equal(t, "case-theft-2", res.SectionCases[1].ID)
}

func TestSearch_SectionLookupWithoutQuery(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Search(context.Background(), "", []string{"IPC 302"}, Options{
		PrecedentThreshold: 0.85,
	})
	require.NoError(t, err)

	assert.Empty(t, res.SimilarCases)
	assert.Empty(t, res.PrecedentCases)
	require.Len(t, res.SectionCases, 1)
	assert.Equal(t, "case-murder-1", res.SectionCases[0].ID)
}

func TestSearch_EmptyQueryNoFilter(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.Search(context.Background(), "   ", nil, Options{PrecedentThreshold: 0.85})
	require.NoError(t, err)
	assert.Empty(t, res.SimilarCases)
	assert.Empty(t, res.PrecedentCases)
	assert.Empty(t, res.SectionCases)
}

func TestSearch_NotInitialized(t *testing.T) {
	corpus := testCorpus(t)
	eng, err := NewEngine(Deps{
		Corpus:   corpus,
		Embedder: testEmbedder(t, corpus),
		Index:    memindex.NewMemoryIndex(),
	}, Config{})
	require.NoError(t, err)

	_, err = eng.Search(context.Background(), "phone theft query", nil, Options{PrecedentThreshold: 0.85})
	assert.True(t, errors.IsNotInitialized(err))
}

func TestSearch_InvalidThreshold(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Search(context.Background(), "q", nil, Options{PrecedentThreshold: 1.5})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidThreshold))

	_, err = eng.Search(context.Background(), "q", nil, Options{PrecedentThreshold: -0.1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidThreshold))
}

func TestSearch_NegativeTopK(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.Search(context.Background(), "q", nil, Options{TopK: -1, PrecedentThreshold: 0.8})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTopK))
}

func TestSearch_EmbedderFailure(t *testing.T) {
	corpus := testCorpus(t)
	emb := testEmbedder(t, corpus)
	eng, err := NewEngine(Deps{Corpus: corpus, Embedder: emb, Index: memindex.NewMemoryIndex()}, Config{})
	require.NoError(t, err)
	require.NoError(t, eng.Init(context.Background()))

	emb.err = errors.New(errors.ErrCodeProviderUnavailable, "down")
	_, err = eng.Search(context.Background(), "phone theft query", nil, Options{PrecedentThreshold: 0.85})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRetrievalFailed))
}

func TestInit_SnapshotRoundTrip(t *testing.T) {
	corpus := testCorpus(t)
	emb := testEmbedder(t, corpus)
	path := t.TempDir() + "/cases.snapshot"

	first, err := NewEngine(Deps{Corpus: corpus, Embedder: emb, Index: memindex.NewMemoryIndex()},
		Config{SnapshotPath: path})
	require.NoError(t, err)
	require.NoError(t, first.Init(context.Background()))
	assert.FileExists(t, path)

	// A second engine restores from the snapshot even when the embedder is
	// unavailable.
	second, err := NewEngine(Deps{
		Corpus:   corpus,
		Embedder: &fakeEmbedder{err: errors.New(errors.ErrCodeProviderUnavailable, "down")},
		Index:    memindex.NewMemoryIndex(),
	}, Config{SnapshotPath: path})
	require.NoError(t, err)
	require.NoError(t, second.Init(context.Background()))

	res, err := second.Search(context.Background(), "phone theft query", nil, Options{PrecedentThreshold: 0.85})
	require.Error(t, err) // query embedding still needs the provider
	assert.True(t, errors.IsCode(err, errors.ErrCodeRetrievalFailed))
	_ = res
}

func TestInit_EmptyCorpus(t *testing.T) {
	eng, err := NewEngine(Deps{
		Corpus:   legalcase.NewMemoryCorpus(),
		Embedder: &fakeEmbedder{},
		Index:    memindex.NewMemoryIndex(),
	}, Config{})
	require.NoError(t, err)

	err = eng.Init(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeRetrievalFailed))
}
