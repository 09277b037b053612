// Command worker consumes calculation requests from Kafka, runs them through
// the cost engine and publishes completion events. Requests that keep failing
// are moved to the dead-letter topic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http"
	"github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http/handlers"
)

const (
	defaultHealthPort = 8081
	topicSetupTimeout = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	skipTopics := flag.Bool("skip-topic-setup", false, "do not create missing Kafka topics on startup")
	flag.Parse()

	if err := run(*configPath, *healthPort, *skipTopics); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, healthPort int, skipTopics bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return errors.New("kafka.enabled must be true for the worker")
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	logger = logger.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("runtime close failed", logging.Err(err))
		}
	}()

	if !skipTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, rt.Producer, logger)
	if err != nil {
		return err
	}
	consumer.Subscribe(cfg.Kafka.RequestTopic, kafka.NewRequestHandler(rt.Service, rt.Events, logger))

	health := healthServer(cfg, rt, healthPort)
	go func() {
		if err := health.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("worker started",
		logging.String("version", bootstrap.Version),
		logging.String("topic", cfg.Kafka.RequestTopic),
		logging.String("group_id", cfg.Kafka.GroupID),
		logging.Int("health_port", healthPort))

	<-ctx.Done()
	logger.Info("shutting down; draining in-flight messages")

	consumer.Wait()
	if err := consumer.Close(); err != nil {
		logger.Warn("consumer close failed", logging.Err(err))
	}

	stats := consumer.Stats()
	logger.Info("worker stopped",
		logging.Int64("consumed", stats.Consumed),
		logging.Int64("processed", stats.Processed),
		logging.Int64("failed", stats.Failed),
		logging.Int64("dead_lettered", stats.DeadLettered))

	if err := health.Stop(context.Background()); err != nil {
		logger.Warn("health server shutdown error", logging.Err(err))
	}
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return fmt.Errorf("kafka topic manager: %w", err)
	}
	defer tm.Close()

	ctx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	if err := tm.EnsureTopics(ctx, kafka.CalculationTopics(cfg)); err != nil {
		return fmt.Errorf("kafka topics: %w", err)
	}
	return nil
}

// healthServer exposes probes and metrics only; the worker has no business
// routes.
func healthServer(cfg *config.Config, rt *bootstrap.Runtime, port int) *httpserver.Server {
	checkers := make([]handlers.HealthChecker, 0, len(rt.HealthChecks))
	for _, h := range rt.HealthChecks {
		checkers = append(checkers, handlers.NewChecker(h.Name, h.Check))
	}

	gin.SetMode(gin.ReleaseMode)
	rc := httpserver.RouterConfig{
		Health:      handlers.NewHealthHandler(bootstrap.Version, checkers...),
		Logger:      rt.Logger,
		MetricsPath: cfg.Metrics.Path,
	}
	if rt.Metrics != nil {
		rc.Metrics = rt.Metrics
		rc.MetricsHandler = rt.Collector.Handler()
	}

	srvCfg := cfg.Server
	srvCfg.Port = port
	return httpserver.NewServer(srvCfg, httpserver.NewRouter(rc), rt.Logger)
}

//Personal.AI order the ending
