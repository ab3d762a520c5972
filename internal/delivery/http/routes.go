package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pantrylens/backend/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRouter creates and configures the Gin router. limiter may be nil to
// disable per-client rate limiting.
func SetupRouter(cfg *config.Config, handler *Handler, limiter Limiter, logger *logrus.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(GzipMiddleware())

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if limiter != nil {
		v1.Use(RateLimitMiddleware(limiter))
	}
	{
		products := v1.Group("/products")
		{
			products.GET("/:code", handler.GetProduct)
			products.POST("/resolve", handler.ResolveProduct)
		}
	}

	return router
}
