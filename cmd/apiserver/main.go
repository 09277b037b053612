// Command apiserver serves the cost engine REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-CostEngine/internal/bootstrap"
	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/KeyIP-CostEngine/internal/interfaces/http"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	gin.SetMode(cfg.Server.Mode)

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

	// Warm the reference cache so the first request does not pay for the load.
	if _, err := rt.Cache.EnsureLoaded(ctx); err != nil {
		logger.Warn("reference data warm-up failed; retrying on demand", logging.Err(err))
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerConfig(cfg, rt)), logger)

	logger.Info("starting cost engine API server",
		logging.String("version", bootstrap.Version),
		logging.String("commit", bootstrap.GitCommit),
		logging.Int("port", cfg.Server.Port))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
	return nil
}

//Personal.AI order the ending
