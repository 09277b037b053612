// Package bootstrap assembles the cost engine from configuration. The API
// server, the worker and the CLI each build one Runtime at startup and close
// it on exit.
package bootstrap

import (
	"context"
	"fmt"

	appCosting "github.com/turtacn/KeyIP-CostEngine/internal/application/costing"
	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/narrative"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/referencedata"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/storage/minio"
)

// Build information, injected with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// HealthCheck is one dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Runtime holds the wired service and the clients behind it.
type Runtime struct {
	Config  *config.Config
	Logger  logging.Logger
	Service appCosting.Service
	Cache   *appCosting.ReferenceCache

	// Collector and Metrics are nil when metrics are disabled.
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.CostingMetrics

	// Producer and Events are nil when Kafka is disabled.
	Producer *kafka.Producer
	Events   *kafka.CalculationEventPublisher

	HealthChecks []HealthCheck

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	})
}

// New wires a Runtime. Postgres, narrative and Kafka failures are fatal;
// Redis and MinIO failures are logged and the runtime runs without them.
// On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (rt *Runtime, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt = &Runtime{Config: cfg, Logger: logger}
	// error returns nil rt before this runs
	opened := rt
	defer func() {
		if err != nil {
			_ = opened.Close()
			rt = nil
		}
	}()

	if cfg.Metrics.Enabled {
		rt.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		rt.Metrics = prometheus.NewCostingMetrics(rt.Collector)
	}

	var conn *postgres.Connection
	if cfg.Calculation.DataSource == config.DataSourcePostgres {
		if conn, err = rt.openPostgres(ctx); err != nil {
			return nil, err
		}
	}

	sources, err := rt.referenceSources(conn)
	if err != nil {
		return nil, err
	}

	rt.Cache = appCosting.NewReferenceCache(sources, nil, appCosting.ReferenceCacheOptions{
		TTL:          cfg.Calculation.CacheTTL,
		RetryAfter:   cfg.Calculation.RetryAfter,
		StoreTimeout: cfg.Calculation.StoreTimeout,
		Metrics:      rt.serviceMetrics(),
		Logger:       logger,
	})
	rt.HealthChecks = append(rt.HealthChecks, HealthCheck{Name: "reference_data", Check: rt.Cache.HealthCheck})

	deps := appCosting.Dependencies{
		Cache:   rt.Cache,
		Metrics: rt.serviceMetrics(),
		Logger:  logger,
	}
	if conn != nil {
		deps.Results = repositories.NewCalculationRepo(conn, logger)
	}

	if deps.Narrative, err = narrative.New(cfg.Narrative, logger); err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}

	if archive := rt.openArchive(); archive != nil {
		deps.Archive = archive
	}

	if cfg.Kafka.Enabled {
		if rt.Producer, err = kafka.NewProducer(cfg.Kafka, logger); err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		rt.onClose("kafka producer", rt.Producer.Close)
		rt.Events = kafka.NewCalculationEventPublisher(rt.Producer, cfg.Kafka.CompletedTopic)
		deps.Events = rt.Events
	}

	rt.Service, err = appCosting.NewService(appCosting.ServiceConfig{
		MaxJurisdictions: cfg.Calculation.MaxJurisdictions,
		Insights: domainCosting.InsightOptions{
			ClaimsThreshold:  cfg.Calculation.ClaimsInsightThreshold,
			NarrativeTimeout: cfg.Calculation.NarrativeTimeout,
		},
		IncludeTax: cfg.Calculation.IncludeTax,
	}, deps)
	if err != nil {
		return nil, err
	}

	logger.Info("cost engine ready",
		logging.String("data_source", cfg.Calculation.DataSource),
		logging.Bool("persistence", deps.Results != nil),
		logging.Bool("archive", deps.Archive != nil),
		logging.Bool("events", deps.Events != nil),
		logging.String("narrative", cfg.Narrative.Provider))
	return rt, nil
}

// OpenDatabase connects to Postgres without wiring anything else. The
// migrate command uses it.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*postgres.Connection, error) {
	conn, err := postgres.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return conn, nil
}

func (rt *Runtime) openPostgres(ctx context.Context) (*postgres.Connection, error) {
	conn, err := OpenDatabase(ctx, rt.Config.Database, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.onClose("postgres", conn.Close)
	rt.HealthChecks = append(rt.HealthChecks, HealthCheck{Name: "postgres", Check: conn.HealthCheck})

	if rt.Config.Database.AutoMigrate {
		m, err := postgres.NewMigrator(conn.DB(), rt.Logger)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if err := m.Up(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return conn, nil
}

func (rt *Runtime) referenceSources(conn *postgres.Connection) (appCosting.ReferenceSources, error) {
	var src appCosting.ReferenceSources
	if conn != nil {
		src = appCosting.ReferenceSources{
			Fees:   repositories.NewFeeRepo(conn, rt.Logger),
			Rates:  repositories.NewRateRepo(conn, rt.Logger),
			Grants: repositories.NewGrantRepo(conn, rt.Logger),
		}
	} else {
		fs, err := referencedata.Open(rt.Config.Calculation.DataFile)
		if err != nil {
			return src, err
		}
		rt.Logger.Info("reference data loaded from file",
			logging.String("path", rt.Config.Calculation.DataFile), logging.Int("fees", fs.FeeCount()))
		src = appCosting.ReferenceSources{Fees: fs, Rates: fs, Grants: fs}
	}

	if !rt.Config.Redis.Enabled {
		return src, nil
	}
	client, err := redis.NewClient(rt.Config.Redis, rt.Logger)
	if err != nil {
		rt.Logger.Warn("redis unavailable; reference data is not shared across processes", logging.Err(err))
		return src, nil
	}
	rt.onClose("redis", client.Close)
	rt.HealthChecks = append(rt.HealthChecks, HealthCheck{Name: "redis", Check: client.Ping})

	var observer redis.CacheObserver
	if rt.Metrics != nil {
		observer = rt.Metrics
	}
	cache := redis.NewRedisCache(client, rt.Logger,
		redis.WithPrefix(rt.Config.Redis.KeyPrefix),
		redis.WithDefaultTTL(rt.Config.Redis.ReferenceTTL))
	shared := redis.NewCachedReferenceStore(redis.ReferenceSources{
		Fees:   src.Fees,
		Rates:  src.Rates,
		Grants: src.Grants,
	}, cache, rt.Config.Redis.ReferenceTTL, observer, rt.Logger)
	return appCosting.ReferenceSources{Fees: shared, Rates: shared, Grants: shared}, nil
}

func (rt *Runtime) openArchive() *minio.ReportArchive {
	if !rt.Config.MinIO.Enabled {
		return nil
	}
	client, err := minio.NewClient(rt.Config.MinIO, rt.Logger)
	if err != nil {
		rt.Logger.Warn("minio unavailable; reports are not archived", logging.Err(err))
		return nil
	}
	rt.HealthChecks = append(rt.HealthChecks, HealthCheck{Name: "minio", Check: client.HealthCheck})
	return minio.NewReportArchive(client)
}

// serviceMetrics avoids handing a typed nil to interface fields.
func (rt *Runtime) serviceMetrics() appCosting.Metrics {
	if rt.Metrics == nil {
		return appCosting.NopMetrics{}
	}
	return rt.Metrics
}

func (rt *Runtime) onClose(name string, fn func() error) {
	rt.closers = append(rt.closers, namedCloser{name: name, close: fn})
}

// Close releases clients in reverse order of opening and returns the first
// error.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.close(); err != nil {
			rt.Logger.Warn("close failed", logging.String("component", c.name), logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	rt.closers = nil
	return first
}

//Personal.AI order the ending
