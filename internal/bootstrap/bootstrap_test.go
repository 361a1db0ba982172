package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// memoryConfig is a complete configuration that touches no external backend:
// memory stores, memory index, no Redis, no Kafka, no MinIO.
func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			Mode:            "test",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Providers: config.ProvidersConfig{
			EmbedderURL: "http://localhost:18000",
			Timeout:     2 * time.Second,
		},
		Milvus: config.MilvusConfig{
			EmbeddingDim: 384,
		},
		Classifier: config.ClassifierConfig{
			KeywordWeight:   0.2,
			ZeroShotWeight:  0.4,
			EmbeddingWeight: 0.4,
			DefaultTopK:     5,
		},
		Retrieval: config.RetrievalConfig{
			DefaultTopK:        10,
			PrecedentThreshold: 0.85,
			PrecedentPoolSize:  20,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "console",
		},
	}
}

func TestNew_MemoryBackends(t *testing.T) {
	app, err := New(context.Background(), Options{Config: memoryConfig()})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Postgres)
	assert.Nil(t, app.Redis)
	assert.Nil(t, app.Milvus)
	assert.Nil(t, app.Producer)

	require.NotNil(t, app.Catalog)
	require.NotNil(t, app.Corpus)
	require.NotNil(t, app.Classifier)
	require.NotNil(t, app.Estimator)
	require.NotNil(t, app.Engine)
	require.NotNil(t, app.Pipeline)
	require.NotNil(t, app.Metrics)
}

func TestNew_RequiresEmbedderURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Providers.EmbedderURL = ""

	_, err := New(context.Background(), Options{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestNew_SeedsFromDataDir(t *testing.T) {
	dir := writeSeedDir(t, offenseSeedJSON, caseSeedJSON)

	app, err := New(context.Background(), Options{Config: memoryConfig(), DataDir: dir})
	require.NoError(t, err)
	defer app.Close()

	n, err := app.Catalog.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := app.Corpus.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m)
}

func TestNew_DisableMetrics(t *testing.T) {
	app, err := New(context.Background(), Options{Config: memoryConfig(), DisableMetrics: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Collector)
	assert.Nil(t, app.Metrics)
}

func TestHTTPHandler_ServesHealthAndMetrics(t *testing.T) {
	app, err := New(context.Background(), Options{Config: memoryConfig()})
	require.NoError(t, err)
	defer app.Close()

	handler := app.HTTPHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Index has not been warmed, so readiness must fail.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMigrationsURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.MigrationPath = "/opt/lextriage/migrations"

	app, err := New(context.Background(), Options{Config: cfg, DisableMetrics: true})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "file:///opt/lextriage/migrations", app.MigrationsURL())
}

func TestClose_Idempotent(t *testing.T) {
	app, err := New(context.Background(), Options{Config: memoryConfig()})
	require.NoError(t, err)

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
}
