package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfscout/backend/config"
)

// MetricsExporter records HTTP metrics and serves the scrape endpoint
type MetricsExporter interface {
	HTTPMetrics
	Handler() http.Handler
}

// SetupRouter creates and configures the Gin router. m may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, m MetricsExporter) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if m != nil {
		router.Use(MetricsMiddleware(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/", handler.Index)
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)
		api.GET("/cities", handler.ListCities)

		price := api.Group("/price")
		{
			price.GET("/check", handler.CheckPrice)
			price.POST("/check", handler.CheckPrice)
			price.GET("/vendor", handler.VendorPricing)
			price.POST("/vendor", handler.VendorPricing)
		}
	}

	router.NoRoute(handler.NotFound)

	return router
}
