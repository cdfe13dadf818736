package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"courier/internal/handler"
	"courier/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DeliveryHandler   *handler.DeliveryHandler
	DriverHandler     *handler.DriverHandler
	RemittanceHandler *handler.RemittanceHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Delivery routes.
		deliveries := v1.Group("/deliveries")
		{
			deliveries.GET("/:id", deps.DeliveryHandler.GetDelivery)
			deliveries.POST("/:id/transition", deps.DeliveryHandler.Transition)
			deliveries.POST("/:id/proof", deps.DeliveryHandler.SubmitProof)
			deliveries.POST("/:id/tracking", deps.DeliveryHandler.StartTracking)
			deliveries.POST("/:id/position", deps.DeliveryHandler.PostPosition)
			deliveries.POST("/:id/statement", deps.DeliveryHandler.GenerateStatement)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("/nearby", deps.DriverHandler.NearbyDrivers)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/position", deps.DriverHandler.UpdatePosition)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
			drivers.GET("/:id/balance", deps.RemittanceHandler.GetBalance)
			drivers.GET("/:id/remittances", deps.RemittanceHandler.ListRemittances)
			drivers.POST("/:id/remittances", deps.RemittanceHandler.CreateRemittance)
		}

		// Remittance routes.
		remittances := v1.Group("/remittances")
		{
			remittances.POST("/:id/settle", deps.RemittanceHandler.SettleRemittance)
		}
	}

	return router
}
