// Package bootstrap assembles the LexTriage service graph from configuration.
// Every entry point (API server, worker, CLI) builds its dependencies through
// App so that backend selection lives in exactly one place: Postgres when a
// database host is configured and memory stores otherwise, Milvus when an
// address is configured and the in-memory index otherwise, with Redis, Kafka
// and MinIO each optional in the same way.
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/application/penalty"
	"github.com/lexintel/LexTriage/internal/application/retrieval"
	"github.com/lexintel/LexTriage/internal/application/triage"
	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/domain/legalcase"
	"github.com/lexintel/LexTriage/internal/domain/offense"
	"github.com/lexintel/LexTriage/internal/infrastructure/database/postgres"
	"github.com/lexintel/LexTriage/internal/infrastructure/database/postgres/repositories"
	redisx "github.com/lexintel/LexTriage/internal/infrastructure/database/redis"
	"github.com/lexintel/LexTriage/internal/infrastructure/messaging/kafka"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	promx "github.com/lexintel/LexTriage/internal/infrastructure/monitoring/prometheus"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/memindex"
	"github.com/lexintel/LexTriage/internal/infrastructure/search/milvus"
	miniox "github.com/lexintel/LexTriage/internal/infrastructure/storage/minio"
	"github.com/lexintel/LexTriage/internal/intelligence/providers"
	httpiface "github.com/lexintel/LexTriage/internal/interfaces/http"
	"github.com/lexintel/LexTriage/internal/interfaces/http/handlers"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// metricsNamespace prefixes every Prometheus series the service exports.
const metricsNamespace = "lextriage"

// snapshotObjectName is the key the index snapshot is stored under in the
// snapshot bucket.
const snapshotObjectName = "case-index.snapshot.json"

// Options controls how New assembles the application.
type Options struct {
	// Config supplies an already loaded configuration.  When nil, ConfigPath
	// is loaded instead.
	Config *config.Config

	// ConfigPath is the configuration file to load when Config is nil.  An
	// empty path falls back to environment variables and defaults.
	ConfigPath string

	// DataDir, when set, points at a directory whose offenses.json and
	// cases.json seed the catalog and corpus on startup.
	DataDir string

	// DisableMetrics skips the Prometheus collector, for short-lived CLI
	// invocations that have nowhere to scrape from.
	DisableMetrics bool
}

// App is the fully wired service graph.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector promx.MetricsCollector
	Metrics   *promx.AppMetrics

	Postgres  *postgres.Connection
	Redis     *redisx.Client
	Milvus    *milvus.Client
	MinIO     *miniox.Client
	Snapshots *miniox.SnapshotStore
	Producer  *kafka.Producer

	Catalog  offense.Catalog
	Corpus   legalcase.Corpus
	Embedder providers.Embedder

	Classifier *classification.Service
	Estimator  *penalty.Service
	Engine     *retrieval.Engine
	Pipeline   *triage.Service

	closers []func() error
}

// New loads configuration and wires the whole service graph.  It opens
// connections to every configured backend but does not build the vector
// index; call WarmIndex before serving search traffic.
func New(ctx context.Context, opts Options) (_ *App, err error) {
	cfg := opts.Config
	if cfg == nil {
		if opts.ConfigPath != "" {
			cfg, err = config.Load(opts.ConfigPath)
		} else {
			cfg, err = config.LoadFromEnv()
		}
		if err != nil {
			return nil, err
		}
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if !opts.DisableMetrics {
		collector, cerr := promx.NewMetricsCollector(promx.CollectorConfig{
			Namespace:            metricsNamespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if cerr != nil {
			return nil, cerr
		}
		app.Collector = collector
		app.Metrics = promx.NewAppMetrics(collector)
	}

	if err = app.wireStores(ctx, opts.DataDir); err != nil {
		return nil, err
	}
	if err = app.wireEmbedder(ctx); err != nil {
		return nil, err
	}
	if err = app.wireServices(ctx); err != nil {
		return nil, err
	}
	if err = app.wireMessaging(); err != nil {
		return nil, err
	}
	return app, nil
}

// wireStores selects Postgres repositories or memory stores and applies the
// seed data.
func (a *App) wireStores(ctx context.Context, dataDir string) error {
	if a.Config.Database.Host != "" {
		if err := postgres.RunMigrations(postgres.BuildDSN(a.Config.Database), a.MigrationsURL()); err != nil {
			return err
		}

		conn, err := postgres.NewConnection(ctx, a.Config.Database, a.Logger)
		if err != nil {
			return err
		}
		a.Postgres = conn
		a.deferClose(func() error { conn.Close(); return nil })

		a.Catalog = repositories.NewOffenseRepo(conn.Pool())
		a.Corpus = repositories.NewCaseRepo(conn.Pool())
	} else {
		a.Logger.Info("no database host configured, using in-memory stores")
		a.Catalog = offense.NewMemoryCatalog()
		a.Corpus = legalcase.NewMemoryCorpus()
	}

	return Seed(ctx, a.Catalog, a.Corpus, dataDir, a.Logger)
}

// wireEmbedder builds the embedding provider chain: the HTTP embedder,
// wrapped in the Redis cache when Redis is configured.
func (a *App) wireEmbedder(ctx context.Context) error {
	pcfg := a.Config.Providers
	if pcfg.EmbedderURL == "" {
		return errors.New(errors.ErrCodeValidation, "bootstrap: providers.embedder_url is required")
	}

	var emb providers.Embedder = providers.NewHTTPEmbedder(
		pcfg.EmbedderURL, a.Config.Milvus.EmbeddingDim, pcfg.Timeout, a.Logger, a.Metrics)

	if a.Config.Redis.Addr != "" {
		client, err := redisx.NewClient(ctx, a.Config.Redis, a.Logger)
		if err != nil {
			return err
		}
		a.Redis = client
		a.deferClose(client.Close)
		emb = redisx.NewCachedEmbedder(client, emb,
			a.Config.Redis.KeyPrefix, a.Config.Redis.DefaultTTL, a.Logger, a.Metrics)
	}

	a.Embedder = emb
	return nil
}

// wireServices builds the classifier, the estimator, the retrieval engine
// and the triage pipeline on top of the stores and providers.
func (a *App) wireServices(ctx context.Context) error {
	var zeroShot providers.ZeroShotClassifier
	if a.Config.Providers.ZeroShotURL != "" {
		zeroShot = providers.NewHTTPZeroShot(
			a.Config.Providers.ZeroShotURL, a.Config.Providers.Timeout, a.Logger, a.Metrics)
	} else {
		a.Logger.Warn("no zero-shot provider configured, classifier runs without it")
	}

	classifier, err := classification.NewService(classification.Deps{
		Catalog:  a.Catalog,
		ZeroShot: zeroShot,
		Embedder: a.Embedder,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	}, classification.Config{
		Weights: classification.Weights{
			Keyword:   a.Config.Classifier.KeywordWeight,
			ZeroShot:  a.Config.Classifier.ZeroShotWeight,
			Embedding: a.Config.Classifier.EmbeddingWeight,
		},
		DefaultTopK:     a.Config.Classifier.DefaultTopK,
		ProviderTimeout: a.Config.Providers.Timeout,
	})
	if err != nil {
		return err
	}
	a.Classifier = classifier

	estimator, err := penalty.NewService(penalty.Deps{
		Catalog: a.Catalog,
		Logger:  a.Logger,
		Metrics: a.Metrics,
	})
	if err != nil {
		return err
	}
	a.Estimator = estimator

	index, backend, err := a.wireIndex(ctx)
	if err != nil {
		return err
	}

	engine, err := retrieval.NewEngine(retrieval.Deps{
		Corpus:   a.Corpus,
		Embedder: a.Embedder,
		Index:    index,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	}, retrieval.Config{
		DefaultTopK:      a.Config.Retrieval.DefaultTopK,
		PrecedentPool:    a.Config.Retrieval.PrecedentPoolSize,
		SnapshotPath:     a.Config.Retrieval.SnapshotPath,
		ProviderTimeout:  a.Config.Providers.Timeout,
		IndexBackendName: backend,
	})
	if err != nil {
		return err
	}
	a.Engine = engine
	return nil
}

// wireIndex selects the vector index backend and, when MinIO is configured,
// the snapshot store used to survive restarts without re-embedding.
func (a *App) wireIndex(ctx context.Context) (memindex.Index, string, error) {
	if a.Config.MinIO.Endpoint != "" {
		mc, err := miniox.NewClient(ctx, a.Config.MinIO, a.Logger)
		if err != nil {
			return nil, "", err
		}
		a.MinIO = mc
		a.Snapshots = miniox.NewSnapshotStore(mc, a.Logger)
	}

	if a.Config.Milvus.Addr != "" {
		client, err := milvus.NewClient(ctx, a.Config.Milvus, a.Logger)
		if err != nil {
			return nil, "", err
		}
		a.Milvus = client
		a.deferClose(client.Close)
		return milvus.NewCaseIndex(client, a.Config.Milvus, a.Logger), "milvus", nil
	}

	return memindex.NewMemoryIndex(), "memory", nil
}

// wireMessaging builds the Kafka producer when brokers are configured.
func (a *App) wireMessaging() error {
	if len(a.Config.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(a.Config.Kafka, a.Logger, a.Metrics)
		if err != nil {
			return err
		}
		a.Producer = producer
		a.deferClose(producer.Close)
	}

	var publisher triage.EventPublisher
	if a.Producer != nil {
		publisher = a.Producer
	}
	pipeline, err := triage.NewService(triage.Deps{
		Classifier: a.Classifier,
		Estimator:  a.Estimator,
		Engine:     a.Engine,
		Publisher:  publisher,
		Logger:     a.Logger,
		Metrics:    a.Metrics,
	})
	if err != nil {
		return err
	}
	a.Pipeline = pipeline
	return nil
}

// WarmIndex embeds the corpus and builds the vector index.  With a memory
// backend and a configured snapshot store, the snapshot is pulled from
// object storage before the build and pushed after it, so a restarted
// replica skips re-embedding an unchanged corpus.
func (a *App) WarmIndex(ctx context.Context) error {
	path := a.Config.Retrieval.SnapshotPath

	if a.Snapshots != nil && path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if derr := a.Snapshots.Download(ctx, snapshotObjectName, path); derr != nil {
				if !errors.IsNotFound(derr) {
					a.Logger.Warn("snapshot download failed, rebuilding index",
						logging.Err(derr))
				}
			}
		}
	}

	if err := a.Engine.Init(ctx); err != nil {
		return err
	}

	if a.Snapshots != nil && path != "" {
		if _, err := os.Stat(path); err == nil {
			if uerr := a.Snapshots.Upload(ctx, snapshotObjectName, path); uerr != nil {
				a.Logger.Warn("snapshot upload failed", logging.Err(uerr))
			}
		}
	}
	return nil
}

// RefreshIndex rebuilds the vector index after the corpus changes, dropping
// any stale local snapshot first so Init does not restore it, and
// invalidates the classifier's offense embedding matrix.
func (a *App) RefreshIndex(ctx context.Context) error {
	if path := a.Config.Retrieval.SnapshotPath; path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrCodeInternal, "bootstrap: failed to drop stale snapshot")
		}
	}
	a.Classifier.InvalidateEmbeddings()
	return a.WarmIndex(ctx)
}

// HTTPHandler assembles the full route tree over the wired services.
func (a *App) HTTPHandler() http.Handler {
	pingers := map[string]handlers.Pinger{}
	if a.Postgres != nil {
		pingers["postgres"] = a.Postgres
	}
	if a.Redis != nil {
		pingers["redis"] = a.Redis
	}
	if a.Milvus != nil {
		pingers["milvus"] = a.Milvus
	}

	return httpiface.NewRouter(httpiface.RouterConfig{
		TriageHandler: handlers.NewTriageHandler(
			a.Classifier, a.Estimator, a.Engine, a.Pipeline,
			a.Config.Retrieval.PrecedentThreshold),
		HealthHandler: handlers.NewHealthHandler(a.Engine, pingers),
		Logger:        a.Logger,
		Metrics:       a.Metrics,
		Collector:     a.Collector,
		Mode:          a.Config.Server.Mode,
	})
}

// IngestHandler returns the Kafka case handler: it persists the incoming
// case and rebuilds the index so the new case is searchable immediately.
func (a *App) IngestHandler() kafka.CaseHandler {
	return func(ctx context.Context, payload kafka.CaseIngestedPayload) error {
		c := &legalcase.Case{
			ID:        payload.ID,
			Title:     payload.Title,
			Narrative: payload.Narrative,
			Sections:  payload.Sections,
			Outcome:   payload.Outcome,
			Court:     payload.Court,
		}
		if payload.DecidedOn != nil {
			c.DecidedOn = *payload.DecidedOn
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := a.Corpus.Save(ctx, c); err != nil {
			if errors.IsCode(err, errors.ErrCodeDuplicateCaseID) {
				a.Logger.Debug("duplicate ingest case skipped", logging.String("case_id", c.ID))
				return nil
			}
			return err
		}
		return a.RefreshIndex(ctx)
	}
}

// MigrationsURL converts the configured migration path into the file URL
// golang-migrate expects.
func (a *App) MigrationsURL() string {
	path := a.Config.Database.MigrationPath
	if path == "" {
		path = "migrations"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + abs
}

func (a *App) deferClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases every backend connection in reverse wiring order.  The
// first error wins; later closers still run.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
