package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		v1.POST("/items/similar", handler.FindSimilarItems)
		v1.GET("/match/recommendation", handler.MatchRecommendation)

		packs := v1.Group("/pack-sizes")
		{
			packs.POST("/parse", handler.ParsePackSize)
			packs.POST("/unit-cost", handler.UnitCost)
		}

		v1.POST("/units/convert", handler.ConvertUnits)
		v1.POST("/invoices/map", handler.MapInvoice)
		v1.POST("/recipes/cost", handler.CostRecipe)
	}

	return router
}
