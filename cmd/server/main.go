package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/tictacmatch-go/internal/api"
	"github.com/mcoot/tictacmatch-go/internal/factory"
	redisstorage "github.com/mcoot/tictacmatch-go/internal/storage/redis"
)

// envConfig is the process configuration, read from the environment
type envConfig struct {
	Host             string        `env:"HOST"`
	Port             int           `env:"PORT" envDefault:"8080"`
	StorageType      string        `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL         string        `env:"REDIS_URL"`
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"1h"`
	EvictionInterval time.Duration `env:"EVICTION_INTERVAL" envDefault:"5m"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse environment", slog.String("error", err.Error()))
		os.Exit(1)
	}

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// The orchestrator processes all game events on a single goroutine
	go app.Orchestrator.Run(ctx)

	// Periodically drop finished sessions past their retention window
	go func() {
		ticker := time.NewTicker(cfg.EvictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := app.SessionService.EvictFinished(ctx, cfg.SessionRetention); err != nil {
					logger.Error("session eviction failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger: logger,
		Hub:    app.Hub,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
