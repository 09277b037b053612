package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DataSourcePostgres = "postgres"
	DataSourceFile     = "file"

	NarrativeNone      = "none"
	NarrativeGemini    = "gemini"
	NarrativeAnthropic = "anthropic"
)

const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitBurst  = 20

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBUser            = "ipcost"
	DefaultDBName            = "ipcost"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxConns        = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = 30 * time.Minute
	DefaultDBConnMaxIdleTime = 5 * time.Minute

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPoolSize     = 10
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisIOTimeout    = 3 * time.Second
	DefaultRedisKeyPrefix    = "ipcost:"
	DefaultRedisReferenceTTL = 6 * time.Hour

	DefaultKafkaBroker         = "localhost:9092"
	DefaultKafkaGroupID        = "ipcost-worker"
	DefaultKafkaRequestTopic   = "ipcost.calculation.requested"
	DefaultKafkaCompletedTopic = "ipcost.calculation.completed"
	DefaultKafkaDeadLetter     = "ipcost.calculation.dead_letter"
	DefaultKafkaRetryBackoff   = time.Second
	DefaultKafkaBatchTimeout   = 50 * time.Millisecond
	DefaultKafkaMaxRetries     = 3

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "ipcost-reports"
	DefaultMinIORegion   = "us-east-1"

	DefaultGeminiModel        = "gemini-2.0-flash"
	DefaultAnthropicModel     = "claude-3-5-haiku-latest"
	DefaultNarrativeMaxTokens = 512

	DefaultDataSource             = DataSourceFile
	DefaultMaxJurisdictions       = 3
	DefaultClaimsInsightThreshold = 20
	DefaultCacheTTL               = time.Hour
	DefaultRetryAfter             = time.Minute
	DefaultStoreTimeout           = 5 * time.Second
	DefaultNarrativeTimeout       = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "ipcost"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills every zero-value field of cfg. Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	setInt(&cfg.Server.Port, DefaultServerPort)
	setString(&cfg.Server.Mode, DefaultServerMode)
	setDuration(&cfg.Server.ReadTimeout, DefaultReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, DefaultWriteTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.RateLimitRPS > 0 {
		setInt(&cfg.Server.RateLimitBurst, DefaultRateLimitBurst)
	}

	// ── Database ──────────────────────────────────────────────────────────────
	setString(&cfg.Database.Host, DefaultDBHost)
	setInt(&cfg.Database.Port, DefaultDBPort)
	setString(&cfg.Database.User, DefaultDBUser)
	setString(&cfg.Database.DBName, DefaultDBName)
	setString(&cfg.Database.SSLMode, DefaultDBSSLMode)
	setInt(&cfg.Database.MaxConns, DefaultDBMaxConns)
	setInt(&cfg.Database.MaxIdleConns, DefaultDBMaxIdleConns)
	setDuration(&cfg.Database.ConnMaxLifetime, DefaultDBConnMaxLifetime)
	setDuration(&cfg.Database.ConnMaxIdleTime, DefaultDBConnMaxIdleTime)

	// ── Redis ─────────────────────────────────────────────────────────────────
	setString(&cfg.Redis.Addr, DefaultRedisAddr)
	setInt(&cfg.Redis.PoolSize, DefaultRedisPoolSize)
	setDuration(&cfg.Redis.DialTimeout, DefaultRedisDialTimeout)
	setDuration(&cfg.Redis.ReadTimeout, DefaultRedisIOTimeout)
	setDuration(&cfg.Redis.WriteTimeout, DefaultRedisIOTimeout)
	setString(&cfg.Redis.KeyPrefix, DefaultRedisKeyPrefix)
	setDuration(&cfg.Redis.ReferenceTTL, DefaultRedisReferenceTTL)

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&cfg.Kafka.GroupID, DefaultKafkaGroupID)
	setString(&cfg.Kafka.RequestTopic, DefaultKafkaRequestTopic)
	setString(&cfg.Kafka.CompletedTopic, DefaultKafkaCompletedTopic)
	setString(&cfg.Kafka.DeadLetterTopic, DefaultKafkaDeadLetter)
	setDuration(&cfg.Kafka.RetryBackoff, DefaultKafkaRetryBackoff)
	setDuration(&cfg.Kafka.BatchTimeout, DefaultKafkaBatchTimeout)
	setInt(&cfg.Kafka.MaxRetries, DefaultKafkaMaxRetries)

	// ── MinIO ─────────────────────────────────────────────────────────────────
	setString(&cfg.MinIO.Endpoint, DefaultMinIOEndpoint)
	setString(&cfg.MinIO.Bucket, DefaultMinIOBucket)
	setString(&cfg.MinIO.Region, DefaultMinIORegion)

	// ── Narrative ─────────────────────────────────────────────────────────────
	setString(&cfg.Narrative.Provider, NarrativeNone)
	switch cfg.Narrative.Provider {
	case NarrativeGemini:
		setString(&cfg.Narrative.Model, DefaultGeminiModel)
	case NarrativeAnthropic:
		setString(&cfg.Narrative.Model, DefaultAnthropicModel)
	}
	setInt(&cfg.Narrative.MaxTokens, DefaultNarrativeMaxTokens)

	// ── Calculation ───────────────────────────────────────────────────────────
	setString(&cfg.Calculation.DataSource, DefaultDataSource)
	setInt(&cfg.Calculation.MaxJurisdictions, DefaultMaxJurisdictions)
	setInt(&cfg.Calculation.ClaimsInsightThreshold, DefaultClaimsInsightThreshold)
	setDuration(&cfg.Calculation.CacheTTL, DefaultCacheTTL)
	setDuration(&cfg.Calculation.RetryAfter, DefaultRetryAfter)
	setDuration(&cfg.Calculation.StoreTimeout, DefaultStoreTimeout)
	setDuration(&cfg.Calculation.NarrativeTimeout, DefaultNarrativeTimeout)

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	setString(&cfg.Log.Level, DefaultLogLevel)
	setString(&cfg.Log.Format, DefaultLogFormat)
	setString(&cfg.Metrics.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Metrics.Path, DefaultMetricsPath)
}

// registerKeys makes every leaf key known to viper so that environment
// variables override it even when the config file does not mention it.
// The values are zero; ApplyDefaults supplies the real defaults.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
		"server.max_body_size", "server.shutdown_timeout", "server.cors_origins",
		"server.rate_limit_rps", "server.rate_limit_burst",
		"database.host", "database.port", "database.user", "database.password", "database.db_name",
		"database.ssl_mode", "database.max_conns", "database.max_idle_conns",
		"database.conn_max_lifetime", "database.conn_max_idle_time", "database.auto_migrate",
		"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.pool_size",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
		"redis.reference_ttl",
		"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.request_topic", "kafka.completed_topic",
		"kafka.dead_letter_topic", "kafka.batch_timeout", "kafka.max_retries", "kafka.retry_backoff",
		"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.region", "minio.use_ssl", "minio.retention_days",
		"narrative.provider", "narrative.api_key", "narrative.model", "narrative.max_tokens",
		"calculation.data_source", "calculation.data_file", "calculation.max_jurisdictions",
		"calculation.claims_insight_threshold", "calculation.cache_ttl", "calculation.retry_after",
		"calculation.store_timeout", "calculation.narrative_timeout", "calculation.include_tax",
		"log.level", "log.format",
		"metrics.enabled", "metrics.namespace", "metrics.path",
	} {
		_ = v.BindEnv(key)
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

//Personal.AI order the ending
