// Package config defines all configuration structures for the LexTriage
// platform.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the offense
// catalog and case corpus tables.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the embedding vector cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka parameters for triage events and case ingestion.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	TriageTopic     string   `mapstructure:"triage_topic"`
	IngestTopic     string   `mapstructure:"ingest_topic"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
}

// MilvusConfig holds Milvus vector-store connection parameters.  Milvus is an
// optional backend for the case embedding index; when Addr is empty the
// in-memory index is used.
type MilvusConfig struct {
	Addr             string `mapstructure:"addr"`
	DBName           string `mapstructure:"db_name"`
	EmbeddingDim     int    `mapstructure:"embedding_dim"`
	CollectionPrefix string `mapstructure:"collection_prefix"`
	DefaultTopK      int    `mapstructure:"default_top_k"`
}

// MinIOConfig holds object-storage parameters for embedding snapshots.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ProvidersConfig holds the endpoints of the external signal providers.
type ProvidersConfig struct {
	// ZeroShotURL is the base URL of the zero-shot label scoring service.
	ZeroShotURL string `mapstructure:"zero_shot_url"`
	// EmbedderURL is the base URL of the text-embedding service.
	EmbedderURL string `mapstructure:"embedder_url"`
	// Timeout bounds each provider call; on expiry the provider is treated as
	// failed for that request, not as a fatal error.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ClassifierConfig holds the ensemble weights and candidate-list size.
// The weights trust semantic signals over literal keyword overlap.
type ClassifierConfig struct {
	KeywordWeight   float64 `mapstructure:"keyword_weight"`
	ZeroShotWeight  float64 `mapstructure:"zero_shot_weight"`
	EmbeddingWeight float64 `mapstructure:"embedding_weight"`
	DefaultTopK     int     `mapstructure:"default_top_k"`
}

// RetrievalConfig holds the case retrieval tunables.  PrecedentThreshold is a
// deployment decision (historically 0.80 or 0.85 depending on the corpus) and
// must always be explicit, never an in-code constant.
type RetrievalConfig struct {
	DefaultTopK        int     `mapstructure:"default_top_k"`
	PrecedentThreshold float64 `mapstructure:"precedent_threshold"`
	PrecedentPoolSize  int     `mapstructure:"precedent_pool_size"`
	SnapshotPath       string  `mapstructure:"snapshot_path"`
}

// LogConfig mirrors logging.LogConfig; kept separate so that config does not
// import the logging package.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Milvus     MilvusConfig     `mapstructure:"milvus"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate checks the configuration for internally inconsistent or out-of-range
// values.  It is called by the loader after defaults have been applied, so
// every defaulted field is guaranteed to be populated here.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("config: providers.timeout must be positive, got %s", c.Providers.Timeout)
	}

	if c.Classifier.KeywordWeight < 0 || c.Classifier.ZeroShotWeight < 0 || c.Classifier.EmbeddingWeight < 0 {
		return fmt.Errorf("config: classifier weights must be non-negative")
	}
	if c.Classifier.KeywordWeight+c.Classifier.ZeroShotWeight+c.Classifier.EmbeddingWeight == 0 {
		return fmt.Errorf("config: at least one classifier weight must be positive")
	}
	if c.Classifier.DefaultTopK < 1 {
		return fmt.Errorf("config: classifier.default_top_k must be >= 1, got %d", c.Classifier.DefaultTopK)
	}

	if c.Retrieval.PrecedentThreshold < 0 || c.Retrieval.PrecedentThreshold > 1 {
		return fmt.Errorf("config: retrieval.precedent_threshold %.2f is out of range [0, 1]", c.Retrieval.PrecedentThreshold)
	}
	if c.Retrieval.DefaultTopK < 1 {
		return fmt.Errorf("config: retrieval.default_top_k must be >= 1, got %d", c.Retrieval.DefaultTopK)
	}
	if c.Retrieval.PrecedentPoolSize < c.Retrieval.DefaultTopK {
		return fmt.Errorf("config: retrieval.precedent_pool_size %d must be >= default_top_k %d",
			c.Retrieval.PrecedentPoolSize, c.Retrieval.DefaultTopK)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	return nil
}
