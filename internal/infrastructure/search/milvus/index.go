package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/memindex"
	"github.com/lexintel/LexTriage/pkg/errors"
)

const (
	idField        = "case_id"
	embeddingField = "embedding"
	maxIDLength    = 128
	indexNList     = 1024
	searchNProbe   = 16
	shardsNum      = 2
)

// CaseIndex is a Milvus-backed vector index over case embeddings.  Build
// recreates the collection from scratch; Search runs an approximate
// nearest-neighbour query under the cosine metric.
type CaseIndex struct {
	client     *Client
	collection string
	logger     logging.Logger

	mu    sync.RWMutex
	size  int
	dim   int
	ready bool
}

// NewCaseIndex returns an index bound to the configured collection.  The
// collection is created lazily on the first Build.
func NewCaseIndex(c *Client, cfg config.MilvusConfig, logger logging.Logger) *CaseIndex {
	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "lextriage_"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CaseIndex{
		client:     c,
		collection: prefix + "legal_cases",
		logger:     logger.Named("case_index"),
	}
}

// Build drops and recreates the collection, inserts all vectors and loads the
// fresh collection into memory.  Searches against the old contents keep
// working until the load completes.
func (x *CaseIndex) Build(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.Newf(errors.ErrCodeValidation,
			"milvus: %d ids but %d vectors", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return errors.New(errors.ErrCodeValidation, "milvus: cannot build an empty index")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return errors.Newf(errors.ErrCodeEmbeddingDimension,
				"milvus: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	mc := x.client.mc

	has, err := mc.HasCollection(ctx, x.collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: collection check failed")
	}
	if has {
		if err := mc.DropCollection(ctx, x.collection); err != nil {
			return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: drop collection failed")
		}
	}

	schema := &entity.Schema{
		CollectionName: x.collection,
		Description:    "case narrative embeddings",
		Fields: []*entity.Field{
			{
				Name:       idField,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": fmt.Sprintf("%d", maxIDLength)},
			},
			{
				Name:       embeddingField,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
			},
		},
	}
	if err := mc.CreateCollection(ctx, schema, shardsNum); err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: create collection failed")
	}

	_, err = mc.Insert(ctx, x.collection, "",
		entity.NewColumnVarChar(idField, ids),
		entity.NewColumnFloatVector(embeddingField, dim, vectors),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: insert failed")
	}
	if err := mc.Flush(ctx, x.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: flush failed")
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, indexNList)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: index config failed")
	}
	if err := mc.CreateIndex(ctx, x.collection, embeddingField, idx, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: create index failed")
	}
	if err := mc.LoadCollection(ctx, x.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: load collection failed")
	}

	x.mu.Lock()
	x.size = len(ids)
	x.dim = dim
	x.ready = true
	x.mu.Unlock()

	x.logger.Info("case index built",
		logging.String("collection", x.collection),
		logging.Int("vectors", len(ids)),
		logging.Int("dim", dim))
	return nil
}

// Search returns the topK most similar cases by cosine similarity.
func (x *CaseIndex) Search(ctx context.Context, query []float32, topK int) ([]memindex.Hit, error) {
	if topK <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidTopK, "milvus: topK must be positive, got %d", topK)
	}

	x.mu.RLock()
	ready, dim := x.ready, x.dim
	x.mu.RUnlock()
	if !ready {
		return nil, errors.New(errors.ErrCodeIndexNotInitialized, "milvus: index not built")
	}
	if len(query) != dim {
		return nil, errors.Newf(errors.ErrCodeEmbeddingDimension,
			"milvus: query dimension %d, index dimension %d", len(query), dim)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(searchNProbe)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: search param failed")
	}

	results, err := x.client.mc.Search(ctx, x.collection, nil, "", []string{idField},
		[]entity.Vector{entity.FloatVector(query)}, embeddingField, entity.COSINE, topK, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "milvus: search failed")
	}
	if len(results) == 0 {
		return nil, nil
	}
	return hitsFromResult(results[0])
}

// Size returns the number of indexed vectors.
func (x *CaseIndex) Size(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size, nil
}

// Ready reports whether Build has completed at least once.
func (x *CaseIndex) Ready(_ context.Context) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ready
}

// hitsFromResult converts one Milvus result set into index hits.  Under the
// cosine metric the SDK reports similarity directly in Scores.
func hitsFromResult(res client.SearchResult) ([]memindex.Hit, error) {
	idCol, ok := res.IDs.(*entity.ColumnVarChar)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeRetrievalFailed,
			"milvus: unexpected id column type %T", res.IDs)
	}
	ids := idCol.Data()
	if len(ids) != len(res.Scores) {
		return nil, errors.Newf(errors.ErrCodeRetrievalFailed,
			"milvus: %d ids but %d scores", len(ids), len(res.Scores))
	}

	hits := make([]memindex.Hit, len(ids))
	for i, id := range ids {
		hits[i] = memindex.Hit{ID: id, Score: float64(res.Scores[i])}
	}
	return hits, nil
}

var _ memindex.Index = (*CaseIndex)(nil)
