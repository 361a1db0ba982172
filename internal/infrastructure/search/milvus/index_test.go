package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// fakeMilvus implements the handful of SDK calls the index uses.  The
// embedded interface panics on anything else, which keeps the fake honest.
type fakeMilvus struct {
	client.Client

	hasCollection bool
	dropped       []string
	created       []*entity.Schema
	insertedIDs   []string
	flushed       bool
	indexed       bool
	loaded        bool

	searchResults []client.SearchResult
	searchErr     error
	healthErr     error
}

func (f *fakeMilvus) HasCollection(_ context.Context, _ string) (bool, error) {
	return f.hasCollection, nil
}

func (f *fakeMilvus) DropCollection(_ context.Context, name string, _ ...client.DropCollectionOption) error {
	f.dropped = append(f.dropped, name)
	return nil
}

func (f *fakeMilvus) CreateCollection(_ context.Context, schema *entity.Schema, _ int32, _ ...client.CreateCollectionOption) error {
	f.created = append(f.created, schema)
	return nil
}

func (f *fakeMilvus) Insert(_ context.Context, _ string, _ string, columns ...entity.Column) (entity.Column, error) {
	for _, col := range columns {
		if vc, ok := col.(*entity.ColumnVarChar); ok {
			f.insertedIDs = append(f.insertedIDs, vc.Data()...)
		}
	}
	return nil, nil
}

func (f *fakeMilvus) Flush(_ context.Context, _ string, _ bool, _ ...client.FlushOption) error {
	f.flushed = true
	return nil
}

func (f *fakeMilvus) CreateIndex(_ context.Context, _ string, _ string, _ entity.Index, _ bool, _ ...client.IndexOption) error {
	f.indexed = true
	return nil
}

func (f *fakeMilvus) LoadCollection(_ context.Context, _ string, _ bool, _ ...client.LoadCollectionOption) error {
	f.loaded = true
	return nil
}

func (f *fakeMilvus) Search(_ context.Context, _ string, _ []string, _ string, _ []string,
	_ []entity.Vector, _ string, _ entity.MetricType, _ int, _ entity.SearchParam,
	_ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeMilvus) CheckHealth(_ context.Context) (*entity.MilvusState, error) {
	return &entity.MilvusState{}, f.healthErr
}

func (f *fakeMilvus) Close() error { return nil }

func newFakeIndex(f *fakeMilvus) *CaseIndex {
	return NewCaseIndex(&Client{mc: f}, config.MilvusConfig{CollectionPrefix: "test_"}, nil)
}

func TestNewClient_RequiresAddr(t *testing.T) {
	_, err := NewClient(context.Background(), config.MilvusConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestNewClient_ConnectFailure(t *testing.T) {
	orig := newMilvusClient
	newMilvusClient = func(_ context.Context, _ client.Config) (client.Client, error) {
		return nil, assert.AnError
	}
	defer func() { newMilvusClient = orig }()

	_, err := NewClient(context.Background(), config.MilvusConfig{Addr: "localhost:19530"}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.GetCode(err))
}

func TestClient_PingAndClose(t *testing.T) {
	orig := newMilvusClient
	fake := &fakeMilvus{}
	newMilvusClient = func(_ context.Context, _ client.Config) (client.Client, error) {
		return fake, nil
	}
	defer func() { newMilvusClient = orig }()

	c, err := NewClient(context.Background(), config.MilvusConfig{Addr: "localhost:19530"}, nil)
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestCaseIndex_BuildValidation(t *testing.T) {
	idx := newFakeIndex(&fakeMilvus{})
	ctx := context.Background()

	err := idx.Build(ctx, []string{"a", "b"}, [][]float32{{1, 0}})
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	err = idx.Build(ctx, nil, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	err = idx.Build(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {1, 0, 0}})
	assert.Equal(t, errors.ErrCodeEmbeddingDimension, errors.GetCode(err))
}

func TestCaseIndex_BuildRecreatesCollection(t *testing.T) {
	fake := &fakeMilvus{hasCollection: true}
	idx := newFakeIndex(fake)

	err := idx.Build(context.Background(), []string{"CASE-1", "CASE-2"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	assert.Equal(t, []string{"test_legal_cases"}, fake.dropped)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "test_legal_cases", fake.created[0].CollectionName)
	assert.Equal(t, []string{"CASE-1", "CASE-2"}, fake.insertedIDs)
	assert.True(t, fake.flushed)
	assert.True(t, fake.indexed)
	assert.True(t, fake.loaded)

	assert.True(t, idx.Ready(context.Background()))
	size, err := idx.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestCaseIndex_SearchBeforeBuild(t *testing.T) {
	idx := newFakeIndex(&fakeMilvus{})

	_, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	assert.Equal(t, errors.ErrCodeIndexNotInitialized, errors.GetCode(err))
}

func TestCaseIndex_SearchInvalidTopK(t *testing.T) {
	idx := newFakeIndex(&fakeMilvus{})

	_, err := idx.Search(context.Background(), []float32{1, 0}, 0)
	assert.Equal(t, errors.ErrCodeInvalidTopK, errors.GetCode(err))
}

func TestCaseIndex_Search(t *testing.T) {
	fake := &fakeMilvus{
		searchResults: []client.SearchResult{{
			IDs:    entity.NewColumnVarChar(idField, []string{"CASE-2", "CASE-1"}),
			Scores: []float32{0.91, 0.74},
		}},
	}
	idx := newFakeIndex(fake)
	require.NoError(t, idx.Build(context.Background(), []string{"CASE-1", "CASE-2"}, [][]float32{{1, 0}, {0, 1}}))

	hits, err := idx.Search(context.Background(), []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "CASE-2", hits[0].ID)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-6)
	assert.Equal(t, "CASE-1", hits[1].ID)
}

func TestCaseIndex_SearchDimensionMismatch(t *testing.T) {
	idx := newFakeIndex(&fakeMilvus{})
	require.NoError(t, idx.Build(context.Background(), []string{"CASE-1"}, [][]float32{{1, 0, 0}}))

	_, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	assert.Equal(t, errors.ErrCodeEmbeddingDimension, errors.GetCode(err))
}

func TestHitsFromResult_Malformed(t *testing.T) {
	_, err := hitsFromResult(client.SearchResult{
		IDs:    entity.NewColumnInt64("id", []int64{1}),
		Scores: []float32{0.5},
	})
	assert.Equal(t, errors.ErrCodeRetrievalFailed, errors.GetCode(err))

	_, err = hitsFromResult(client.SearchResult{
		IDs:    entity.NewColumnVarChar(idField, []string{"a", "b"}),
		Scores: []float32{0.5},
	})
	assert.Equal(t, errors.ErrCodeRetrievalFailed, errors.GetCode(err))
}
