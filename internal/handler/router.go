package handler

import (
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the gin engine: middleware chain, lifecycle routes,
// trading routes, health and metrics.
func NewRouter(cfg *config.Config, sessions *SessionHandler, orders *OrderHandler, health *HealthHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst))

	router.POST("/init-session", sessions.InitSession)
	router.POST("/deploy-safe", sessions.DeploySafe)
	router.POST("/derive-credentials", sessions.DeriveCredentials)
	router.POST("/set-approvals", sessions.SetApprovals)

	router.POST("/place-order", orders.PlaceOrder)
	router.POST("/redeem-position", orders.RedeemPosition)
	router.GET("/positions/:safeAddress", orders.Positions)
	router.GET("/order-book/:marketId", orders.OrderBook)

	router.GET("/health", health.Health)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	return router
}
