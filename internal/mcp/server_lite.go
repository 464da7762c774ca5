package mcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/cache"
	litecfg "github.com/neurocalc-mcp-server/internal/config"
	"github.com/neurocalc-mcp-server/internal/domain"
	"github.com/neurocalc-mcp-server/internal/feedback"
	"github.com/neurocalc-mcp-server/internal/logging"
	"github.com/neurocalc-mcp-server/internal/service"
)

// LiteServer is a standalone MCP server that requires no external services.
// It uses an in-memory result cache and, unless disabled, SQLite for feedback.
type LiteServer struct {
	*Server
	config        *litecfg.LiteConfig
	feedbackStore feedback.Store
	cache         *cache.ResultCache
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.feedbackStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		if logger == nil {
			return fmt.Errorf("logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new standalone MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	// stdout carries the protocol
	logger, err := logging.New(domain.LoggingConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		return nil, err
	}

	server := &LiteServer{
		Server: &Server{logger: logger},
		config: cfg,
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.feedbackStore == nil && cfg.FeedbackEnabled {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	server.cache = cache.NewResultCache(cache.Config{
		MaxItems: cfg.CacheMaxItems,
		TTL:      cfg.CacheTTL,
	}, server.logger)

	calculators := service.NewCalculatorService(server.logger, server.cache)
	server.Server = NewServer(ServerInfo{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, calculators, server.feedbackStore, server.logger)
	server.referenceWeightKg = cfg.ReferenceWeightKg

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// Start serves MCP over stdio until ctx is cancelled.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"data_dir": s.config.DataDir,
		"feedback": s.feedbackStore != nil,
	}).Info("Starting neurology calculator MCP server (lite)")
	return s.Server.Start(ctx)
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
			return err
		}
	}
	return nil
}

// GetFeedbackStore returns the feedback store for external access.
func (s *LiteServer) GetFeedbackStore() feedback.Store {
	return s.feedbackStore
}

// GetCache returns the result cache for external access.
func (s *LiteServer) GetCache() *cache.ResultCache {
	return s.cache
}
