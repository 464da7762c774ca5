// Package api exposes the calculators, pathway engines, wizard sessions and
// clinician feedback over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/cache"
	"github.com/neurocalc-mcp-server/internal/domain"
	"github.com/neurocalc-mcp-server/internal/feedback"
	"github.com/neurocalc-mcp-server/internal/middleware"
	"github.com/neurocalc-mcp-server/internal/service"
)

const requestTimeout = 10 * time.Second

// Dependencies are the collaborators the HTTP handlers call.
type Dependencies struct {
	Calculators *service.CalculatorService
	Sessions    *cache.SessionStore[*service.Wizard]
	Feedback    feedback.Store
	ResultCache *cache.ResultCache // optional, reported by /health
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())
	}
	router.Use(middleware.RequestTimeout(requestTimeout))

	server := &Server{
		configManager: configManager,
		deps:          deps,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Correlation-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Correlation-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/calculators", s.handleListCalculators)
		v1.GET("/calculators/:id", s.handleGetCalculator)
		v1.POST("/calculators/:id/calculate", s.handleCalculate)

		v1.POST("/aspects", s.handleASPECTS)
		v1.POST("/race", s.handleRACE)
		v1.POST("/thrombectomy", s.handleThrombectomy)
		v1.POST("/status-epilepticus/recommendation", s.handleSERecommendation)
		v1.GET("/status-epilepticus/dose", s.handleSEDose)

		sessions := v1.Group("/sessions")
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:sid", s.handleGetSession)
		sessions.PUT("/:sid/answers/:input", s.handleAnswer)
		sessions.POST("/:sid/reset", s.handleResetSession)
		sessions.PUT("/:sid/calculator", s.handleSwitchCalculator)
		sessions.DELETE("/:sid", s.handleDeleteSession)

		fb := v1.Group("/feedback")
		fb.POST("", s.handleSubmitFeedback)
		fb.GET("", s.handleListFeedback)
		fb.GET("/export", s.handleExportFeedback)
		fb.POST("/import", s.handleImportFeedback)
		fb.DELETE("/:fid", s.handleDeleteFeedback)
	}
}

// respondError writes err as an APIError with a status derived from its code.
func (s *Server) respondError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := statusForCode(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).Error("Request failed")
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, "", c.GetString(middleware.CorrelationIDKey)))
}

func (s *Server) respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrCodeInvalidInput, "malformed request", err.Error(), c.GetString(middleware.CorrelationIDKey)))
}

func statusForCode(code string) int {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case domain.ErrCodeUnknownCalculator, domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeIncomplete:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeRateLimit:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
