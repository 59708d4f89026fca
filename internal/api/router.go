package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/api/middleware"
	"github.com/liliang-cn/smartsearch/internal/api/search"
	"github.com/liliang-cn/smartsearch/internal/api/session"
	"github.com/liliang-cn/smartsearch/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	sessionService *service.SessionService,
	searchService *service.SearchService,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.Auth(cfg.APIKey))

	sessionHandler := session.NewHandler(sessionService)
	sessionHandler.RegisterRoutes(apiGroup.Group("/session"))

	searchHandler := search.NewHandler(searchService)
	searchHandler.RegisterRoutes(apiGroup.Group("/search"))

	return r
}
