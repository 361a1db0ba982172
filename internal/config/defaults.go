package config

import "time"

// Default value constants.  Classifier weights and retrieval thresholds mirror
// the calibration the triage heuristics were tuned with; deployments override
// them through configuration, never by editing code.
//
// Backend addresses deliberately have no defaults: an unset database host,
// Redis address, Kafka broker list, Milvus address or MinIO endpoint disables
// that backend rather than pointing it at localhost.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBPort     = 5432
	DefaultDBName     = "lextriage"
	DefaultDBMaxConns = 25

	DefaultRedisKeyPrefix = "lextriage:"

	DefaultKafkaGroupID     = "lextriage-ingest"
	DefaultKafkaTriageTopic = "lextriage.triage.completed"
	DefaultKafkaIngestTopic = "lextriage.cases.ingest"

	DefaultMilvusAddr         = ""
	DefaultMilvusEmbeddingDim = 384
	DefaultMilvusTopK         = 10

	DefaultMinIOBucket = "lextriage-snapshots"

	DefaultProviderTimeout = 10 * time.Second

	DefaultKeywordWeight   = 0.2
	DefaultZeroShotWeight  = 0.4
	DefaultEmbeddingWeight = 0.4
	DefaultClassifyTopK    = 5

	DefaultRetrievalTopK = 10
	// DefaultPrecedentThreshold follows the stricter of the two historically
	// deployed values (0.80 and 0.85).
	DefaultPrecedentThreshold = 0.85
	DefaultPrecedentPoolSize  = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  Backend addresses
// stay empty; emptiness is how a backend is switched off.  It must be called
// after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 24 * time.Hour
	}

	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.TriageTopic == "" {
		cfg.Kafka.TriageTopic = DefaultKafkaTriageTopic
	}
	if cfg.Kafka.IngestTopic == "" {
		cfg.Kafka.IngestTopic = DefaultKafkaIngestTopic
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	if cfg.Milvus.EmbeddingDim == 0 {
		cfg.Milvus.EmbeddingDim = DefaultMilvusEmbeddingDim
	}
	if cfg.Milvus.DefaultTopK == 0 {
		cfg.Milvus.DefaultTopK = DefaultMilvusTopK
	}
	if cfg.Milvus.CollectionPrefix == "" {
		cfg.Milvus.CollectionPrefix = "lextriage_"
	}

	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = DefaultProviderTimeout
	}

	if cfg.Classifier.KeywordWeight == 0 && cfg.Classifier.ZeroShotWeight == 0 && cfg.Classifier.EmbeddingWeight == 0 {
		cfg.Classifier.KeywordWeight = DefaultKeywordWeight
		cfg.Classifier.ZeroShotWeight = DefaultZeroShotWeight
		cfg.Classifier.EmbeddingWeight = DefaultEmbeddingWeight
	}
	if cfg.Classifier.DefaultTopK == 0 {
		cfg.Classifier.DefaultTopK = DefaultClassifyTopK
	}

	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = DefaultRetrievalTopK
	}
	if cfg.Retrieval.PrecedentThreshold == 0 {
		cfg.Retrieval.PrecedentThreshold = DefaultPrecedentThreshold
	}
	if cfg.Retrieval.PrecedentPoolSize == 0 {
		cfg.Retrieval.PrecedentPoolSize = DefaultPrecedentPoolSize
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
