package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/application/penalty"
	"github.com/lexintel/LexTriage/internal/application/retrieval"
	"github.com/lexintel/LexTriage/internal/application/triage"
	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/memindex"
)

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

const theftIncident = "My scooter was stolen from the parking lot last night"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	catalog := offense.NewMemoryCatalog()
	theft, err := offense.New("IPC 379", "Theft",
		"Dishonest taking of movable property",
		"Imprisonment up to 3 years, or fine, or both",
		[]string{"theft", "stole", "stolen"})
	require.NoError(t, err)
	require.NoError(t, catalog.Save(ctx, theft))

	classifier, err := classification.NewService(classification.Deps{Catalog: catalog},
		classification.Config{Weights: classification.Weights{Keyword: 1}, DefaultTopK: 5})
	require.NoError(t, err)

	estimator, err := penalty.NewService(penalty.Deps{Catalog: catalog})
	require.NoError(t, err)

	corpus := legalcase.NewMemoryCorpus()
	theftCase, err := legalcase.New("CASE-1", "State v. Rao", "Scooter stolen from a market stall", "Convicted", []string{"IPC 379"})
	require.NoError(t, err)
	require.NoError(t, corpus.Save(ctx, theftCase))

	embedder := &stubEmbedder{vectors: map[string][]float32{
		theftIncident:             {1, 0, 0},
		theftCase.EmbeddingText(): {1, 0, 0},
	}}

	engine, err := retrieval.NewEngine(retrieval.Deps{
		Corpus:   corpus,
		Embedder: embedder,
		Index:    memindex.NewMemoryIndex(),
	}, retrieval.Config{DefaultTopK: 5})
	require.NoError(t, err)
	require.NoError(t, engine.Init(ctx))

	pipeline, err := triage.NewService(triage.Deps{
		Classifier: classifier,
		Estimator:  estimator,
		Engine:     engine,
	})
	require.NoError(t, err)

	h := NewTriageHandler(classifier, estimator, engine, pipeline, 0.8)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/classify", h.Classify)
	api.POST("/penalties", h.EstimatePenalty)
	api.POST("/cases/search", h.SearchCases)
	api.POST("/triage", h.Triage)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClassifyEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/classify", ClassifyRequest{Text: theftIncident})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, "IPC 379", resp.Candidates[0].OffenseCode)
	assert.InDelta(t, 1.0, resp.Candidates[0].Confidence, 1e-9)
}

func TestClassifyEndpoint_EmptyTextYieldsEmptyList(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/classify", ClassifyRequest{Text: ""})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Candidates)
}

func TestClassifyEndpoint_MalformedBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Code)
}

func TestPenaltyEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/penalties", PenaltyRequest{OffenseCode: "IPC 379"})
	require.Equal(t, http.StatusOK, w.Code)

	var estimate penalty.Estimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &estimate))
	assert.Equal(t, "Either: up to 3 years", estimate.Summary)
}

func TestPenaltyEndpoint_UnknownOffense(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/penalties", PenaltyRequest{OffenseCode: "IPC 999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaseSearchEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/cases/search", CaseSearchRequest{Query: theftIncident})
	require.Equal(t, http.StatusOK, w.Code)

	var result retrieval.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotEmpty(t, result.SimilarCases)
	assert.Equal(t, "CASE-1", result.SimilarCases[0].ID)
	// The configured default threshold (0.8) admits the exact match.
	require.NotEmpty(t, result.PrecedentCases)
}

func TestCaseSearchEndpoint_ExplicitThresholdOverridesDefault(t *testing.T) {
	r := newTestRouter(t)

	tight := 1.01
	w := postJSON(t, r, "/api/v1/cases/search", CaseSearchRequest{
		Query:              theftIncident,
		PrecedentThreshold: &tight,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriageEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/triage", TriageRequest{Text: theftIncident})
	require.Equal(t, http.StatusOK, w.Code)

	var report triage.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.NotEmpty(t, report.Candidates)
	assert.Equal(t, "IPC 379", report.Candidates[0].OffenseCode)
	require.NotEmpty(t, report.Penalties)
	require.NotNil(t, report.Cases)
}

func TestTriageEndpoint_EmptyText(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/triage", TriageRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
