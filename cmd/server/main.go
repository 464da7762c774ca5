package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/api"
	"github.com/neurocalc-mcp-server/internal/cache"
	"github.com/neurocalc-mcp-server/internal/config"
	"github.com/neurocalc-mcp-server/internal/database"
	"github.com/neurocalc-mcp-server/internal/feedback"
	"github.com/neurocalc-mcp-server/internal/logging"
	"github.com/neurocalc-mcp-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	resultCache := cache.NewResultCache(cache.Config{
		MaxItems: cfg.Cache.MaxItems,
		TTL:      cfg.Cache.DefaultTTL,
		Redis:    redisClient,
	}, logger)

	store, closeStore, err := openFeedbackStore(ctx, configManager, logger)
	if err != nil {
		log.Fatalf("Failed to open feedback store: %v", err)
	}
	defer closeStore()

	server := api.NewServer(configManager, api.Dependencies{
		Calculators: service.NewCalculatorService(logger, resultCache),
		Sessions:    cache.NewSessionStore[*service.Wizard](cfg.Cache.SessionMaxItems, cfg.Cache.SessionTTL),
		Feedback:    store,
		ResultCache: resultCache,
	}, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"database": cfg.Database.Driver,
		"redis":    redisClient != nil,
	}).Info("Starting neurology calculator API server")

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	logger.Info("Server stopped")
}

// openFeedbackStore opens the store selected by database.driver. The returned
// func releases every resource it opened.
func openFeedbackStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (feedback.Store, func(), error) {
	dbCfg := configManager.GetDatabaseConfig()

	switch dbCfg.Driver {
	case "sqlite":
		store, err := feedback.NewSQLiteStore(dbCfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "postgres":
		url := configManager.GetDatabaseConnectionString()
		if dbCfg.AutoMigrate {
			if err := database.Migrate(ctx, url, logger); err != nil {
				return nil, nil, err
			}
		}

		db, err := database.NewConnection(ctx, url, *dbCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := feedback.NewPostgresStore(db.SQL())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() {
			store.Close()
			db.Close()
		}, nil
	}

	return nil, nil, fmt.Errorf("unsupported database driver: %s", dbCfg.Driver)
}
