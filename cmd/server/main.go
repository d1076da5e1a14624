package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pulsecal/secureband-ai/docs"
	"github.com/pulsecal/secureband-ai/internal/anomaly"
	"github.com/pulsecal/secureband-ai/internal/cache"
	"github.com/pulsecal/secureband-ai/internal/errors"
	"github.com/pulsecal/secureband-ai/internal/middleware"
	"github.com/pulsecal/secureband-ai/internal/models"
	"github.com/pulsecal/secureband-ai/internal/monitoring"
	"github.com/pulsecal/secureband-ai/internal/quality"
	"github.com/pulsecal/secureband-ai/internal/risk"
	"github.com/pulsecal/secureband-ai/internal/security"
	"github.com/pulsecal/secureband-ai/internal/types"
)

const serviceVersion = "1.0.0"

// engines bundles the three scoring engines behind one router dependency.
type engines struct {
	quality *quality.Engine
	anomaly *anomaly.Engine
	risk    *risk.Engine
}

func main() {
	// Structured logging setup
	logLevel := parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	appLogger := monitoring.NewLogger(logLevel)
	slog.SetDefault(appLogger.Logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8000")
	ginMode := getEnvOrDefault("GIN_MODE", gin.ReleaseMode)
	gin.SetMode(ginMode)

	// Model registry with optional threshold overrides from disk.
	// An invalid registry is a deployment error, so fail fast.
	registry, err := models.NewRegistryFromDir(dataDir)
	if err != nil {
		slog.Error("Failed to initialize model registry", "error", err, "data_dir", dataDir)
		os.Exit(1)
	}

	eng, err := buildEngines(registry)
	if err != nil {
		slog.Error("Failed to initialize scoring engines", "error", err)
		os.Exit(1)
	}

	appMetrics := monitoring.NewMetrics()

	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig, appMetrics)
	securityMiddleware.Cleanup()

	// Scoring is deterministic, so short-lived response caching is safe.
	responseCache := cache.NewCache(5 * time.Minute)

	r := setupRouter(registry, eng, appMetrics, appLogger, securityMiddleware, responseCache)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		appLogger.SystemLogger("server_starting", map[string]interface{}{
			"port":    port,
			"version": serviceVersion,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.SystemLogger("shutdown_initiated", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	appLogger.SystemLogger("server_stopped", nil)
}

func buildEngines(registry *models.Registry) (*engines, error) {
	qualityEngine, err := quality.NewEngine(registry)
	if err != nil {
		return nil, err
	}

	anomalyEngine, err := anomaly.NewEngine(registry)
	if err != nil {
		return nil, err
	}

	riskEngine, err := risk.NewEngine(registry)
	if err != nil {
		return nil, err
	}

	return &engines{
		quality: qualityEngine,
		anomaly: anomalyEngine,
		risk:    riskEngine,
	}, nil
}

// setupRouter wires middleware and routes. Split out from main so handler
// tests can exercise the full middleware chain.
func setupRouter(
	registry *models.Registry,
	eng *engines,
	appMetrics *monitoring.Metrics,
	appLogger *monitoring.Logger,
	securityMiddleware *security.SecurityMiddleware,
	responseCache *cache.Cache,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     securityMiddleware.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.RateLimitByIP)
	r.Use(responseCache.Middleware(appMetrics))

	startTime := time.Now()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "SecureBand AI Services",
			"version": serviceVersion,
			"status":  "operational",
			"endpoints": gin.H{
				"signal_quality":    "/api/v1/signal-quality",
				"anomaly_detection": "/api/v1/anomaly-detection",
				"risk_scoring":      "/api/v1/risk-scoring",
				"health":            "/api/v1/health",
				"models":            "/api/v1/models",
			},
		})
	})

	v1 := r.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		modelVersions := make(map[string]string, 3)
		for _, cfg := range registry.All() {
			modelVersions[cfg.Metadata.Name] = string(cfg.Version)
		}

		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"version":        serviceVersion,
			"uptime_seconds": time.Since(startTime).Seconds(),
			"models_loaded":  modelVersions,
		})
	})

	v1.GET("/models", func(c *gin.Context) {
		configs := registry.All()
		metadata := make([]models.ModelMetadata, 0, len(configs))
		for _, cfg := range configs {
			metadata = append(metadata, cfg.Metadata)
		}

		c.JSON(http.StatusOK, gin.H{
			"models":    metadata,
			"count":     len(metadata),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1.POST("/signal-quality", func(c *gin.Context) {
		start := time.Now()

		var req types.SignalQualityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("Invalid signal quality request", err)
			appLogger.APIErrorLogger(c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), appErr.HTTPStatus, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		resp := eng.quality.Assess(req)

		appMetrics.RecordInference(string(models.TypeSignalQuality))
		appLogger.ScoringLogger(resp.ModelVersion, req.DeviceID, resp.QualityScore, resp.QualityScore, time.Since(start))

		c.JSON(http.StatusOK, resp)
	})

	v1.POST("/anomaly-detection", func(c *gin.Context) {
		start := time.Now()

		var req types.AnomalyDetectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("Invalid anomaly detection request", err)
			appLogger.APIErrorLogger(c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), appErr.HTTPStatus, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if err := validateTimestampCoverage(req); err != nil {
			appErr := errors.NewValidationError("Invalid anomaly detection request", err)
			appLogger.APIErrorLogger(c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), appErr.HTTPStatus, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		resp := eng.anomaly.Detect(req)

		appMetrics.RecordInference(string(models.TypeAnomalyDetection))
		appLogger.ScoringLogger(resp.ModelVersion, req.DeviceID, resp.OverallRiskScore, resp.OverallRiskScore, time.Since(start))

		c.JSON(http.StatusOK, resp)
	})

	v1.POST("/risk-scoring", func(c *gin.Context) {
		start := time.Now()

		var req types.RiskScoringRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("Invalid risk scoring request", err)
			appLogger.APIErrorLogger(c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), appErr.HTTPStatus, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		resp := eng.risk.Score(req)

		appMetrics.RecordInference(string(models.TypeRiskScoring))
		appLogger.ScoringLogger(resp.ModelVersion, req.DeviceID, resp.OverallRiskScore, resp.Confidence, time.Since(start))

		c.JSON(http.StatusOK, resp)
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics endpoint
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	// Cache stats endpoint
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, responseCache.Stats())
	})

	return r
}

// validateTimestampCoverage checks that the shared timestamp axis covers the
// longest series in the request.
func validateTimestampCoverage(req types.AnomalyDetectionRequest) error {
	longest := 0
	for _, series := range req.TimeSeriesData {
		if len(series) > longest {
			longest = len(series)
		}
	}

	if len(req.Timestamps) < longest {
		return errors.ErrTimestampCoverage
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
