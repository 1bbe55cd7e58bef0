package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/api/handlers"
	"communitycart/market/internal/api/middleware"
	"communitycart/market/internal/config"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
	"communitycart/market/internal/storage"
	"communitycart/market/internal/tasks"
)

// Services bundles what the public API needs. Storage may be nil when S3 is
// not configured.
type Services struct {
	Marketplace services.IMarketplaceService
	Analytics   services.IVendorAnalyticsService
	Catalog     services.ICatalogService
	Templates   services.INotificationTemplateService
	Storage     storage.IS3Storage
	TaskClient  tasks.IAsynqClient
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	groupBuyHandler := handlers.NewRestGroupBuyHandler(svc.Marketplace, svc.Storage, svc.TaskClient)
	configHandler := handlers.NewRestConfigHandler(svc.Catalog)
	vendorHandler := handlers.NewRestVendorHandler(svc.Analytics)
	notificationHandler := handlers.NewRestNotificationHandler(svc.Templates)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
		v1.GET("/config", configHandler.GetPublicConfig)

		// Listing routes - search before :id to keep them unambiguous
		v1.GET("/groupbuy/search", groupBuyHandler.SearchGroupBuys)
		v1.GET("/groupbuy/:id", groupBuyHandler.GetGroupBuy)
		v1.GET("/vendor/:vendor_id/analytics", vendorHandler.GetVendorAnalytics)

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/groupbuy", groupBuyHandler.CreateGroupBuy)
			authRequired.DELETE("/groupbuy/:id", groupBuyHandler.DeleteGroupBuy)
			authRequired.POST("/groupbuy/:id/join", groupBuyHandler.JoinGroupBuy)
			authRequired.POST("/groupbuy/:id/image", groupBuyHandler.RequestImageUpload)
			authRequired.POST("/groupbuy/:id/image/complete", groupBuyHandler.CompleteImageUpload)
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/config/reload", configHandler.ReloadCatalog)
			adminRequired.GET("/notification/:kind", notificationHandler.GetTemplate)
			adminRequired.PUT("/notification/:kind", notificationHandler.SaveTemplate)
			adminRequired.DELETE("/notification/:kind", notificationHandler.DeleteTemplate)
		}
	}

	return r
}

type serviceRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments"`
}

// SetupServiceRouter configures the internal service Gin engine used by
// operators and integration tests. rdb backs getTestNotification.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}, catalog services.ICatalogService, taskClient tasks.IAsynqClient) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req serviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info().Msg("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn().Msg("shutdown channel already signaled")
			}

		case "reloadCatalog":
			if err := catalog.PublishReload(c.Request.Context()); err != nil {
				log.Error().Err(err).Msg("service API: catalog reload failed")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Catalog reload failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Catalog reload published"})

		case "scanClosingSoon":
			info, err := taskClient.EnqueueContext(c.Request.Context(), tasks.NewClosingSoonScanTask())
			if err != nil {
				log.Error().Err(err).Msg("service API: failed to enqueue closing-soon scan")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to enqueue scan"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": info.ID})

		case "getTestNotification":
			var args []string // ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			getTestNotification(c, rdb, notify.RedisKey(args[1], notify.Kind(args[0])))

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestNotification polls Redis briefly for a message captured by the
// mock sender, deleting it once read.
func getTestNotification(c *gin.Context, rdb *redis.Client, redisKey string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var data string
	found := false
	for i := 0; i < 10; i++ {
		var err error
		data, err = rdb.Get(ctx, redisKey).Result()
		if err == nil {
			found = true
			rdb.Del(ctx, redisKey)
			break
		}
		if err != redis.Nil {
			log.Error().Err(err).Str("key", redisKey).Msg("service API: redis error")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test notification not found in Redis for key %s", redisKey)})
		return
	}

	var msg map[string]interface{}
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
}
