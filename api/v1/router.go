package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go_configserver/api/v1/configs"
	"go_configserver/api/v1/middleware"
	"go_configserver/internal/cache"
	"go_configserver/internal/config"
	"go_configserver/internal/configsvc"
	"go_configserver/internal/httpx"
	"go_configserver/internal/store"
)

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	r.Use(middleware.RequestID(), middleware.AccessLog())

	var syncCache *cache.SyncCache
	if cache.Client != nil {
		syncCache = cache.NewSyncCache(cache.Client, time.Duration(cfg.SyncCache.TTLSec)*time.Second)
	}

	svc := configsvc.New(
		db,
		store.NewPropertyStore(db),
		store.NewSyncStore(db),
		store.NewAuditStore(db),
		syncCache,
	)
	handler := configs.NewHandler(svc)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", pingHandler)

		configGroup := v1.Group("/config")
		{
			configGroup.GET("/meta", handler.GetMetadata)
			configGroup.GET("/yml/:domain/:application", handler.GetPropertyYAML)
			configGroup.GET("/sync/:domain/:application", handler.GetSyncInfo)
			configGroup.GET("/properties/:domain/:application", handler.GetProperties)
			configGroup.POST("/properties/:domain/:application", handler.AddProperty)
			configGroup.PUT("/properties/:domain/:application", handler.UpdateProperties)
			configGroup.DELETE("/properties/:domain/:application/:propertyKey", handler.DeleteProperty)
			configGroup.POST("/onboard", handler.Onboard)
			configGroup.GET("/audit/:domain/:application", handler.GetAuditHistory)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
