package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncastellan/pricewatch-backend-go/internal/config"
	"github.com/ncastellan/pricewatch-backend-go/internal/handler"
	"github.com/ncastellan/pricewatch-backend-go/internal/middleware"
	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// SetupRouter wires middleware and routes.
func SetupRouter(cfg *config.Config, jobs *handler.WatchlistJobHandler, sims *handler.SimulationHandler, log logger.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	// CORS: the engine sits behind the dashboard, keep it permissive.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "PriceWatch API is running",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		watchlist := api.Group("/watchlist")
		{
			watchlist.POST("/jobs", jobs.StartJob)
			watchlist.GET("/jobs", jobs.ListJobs)
			watchlist.GET("/jobs/:id", jobs.GetJob)
			watchlist.DELETE("/jobs/:id", jobs.CancelJob)
			watchlist.GET("/jobs/:id/result", jobs.GetResult)
		}

		api.POST("/simulations", sims.Simulate)
	}

	return r
}
