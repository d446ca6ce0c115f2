package api

import (
	"net/http"
	"time"

	"dreamweaver-server/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// NewRouter assembles the gin engine: logging, recovery, CORS, metrics, the
// health probe and the API routes.
func NewRouter(cfg *config.Config, profileHandler *ProfileHandler, storyHandler *StoryHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ZapLogging(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
		if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
		}
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	apiGroup := router.Group("/api")
	profileHandler.RegisterRoutes(apiGroup)
	storyHandler.RegisterRoutes(apiGroup)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	return router
}
