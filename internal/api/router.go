package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"bedflow-backend/config"
	"bedflow-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Dashboard reads
		api.GET("/departments", caching, h.GetDepartments)
		api.GET("/departments/:department_id/beds", h.GetDepartmentBeds)
		api.GET("/beds/:bed_id/turnover", h.GetBedTurnoverStatus)

		// Turnover lifecycle
		api.POST("/beds/:bed_id/turnovers", h.StartTurnover)
		api.POST("/turnovers/:turnover_id/begin", h.BeginCleaning)
		api.POST("/turnovers/:turnover_id/complete", h.CompleteCleaning)
		api.POST("/turnovers/:turnover_id/reopen", h.ReopenTurnover)
		api.POST("/turnovers/:turnover_id/cancel", h.CancelTurnover)

		// Assignment
		api.POST("/beds/:bed_id/assignments", h.AssignNext)

		// Patient queue
		api.POST("/queue", h.Enqueue)
		api.GET("/queue", h.ListQueue)
		api.POST("/queue/:entry_id/cancel", h.CancelQueueEntry)

		// Equipment cleaning
		api.POST("/equipment/:equipment_id/cleaning", h.MarkEquipmentForCleaning)
		api.POST("/equipment/:equipment_id/cleaning/complete", h.CompleteEquipmentCleaning)
		api.POST("/equipment/:equipment_id/return", h.ReturnEquipment)
		api.GET("/equipment/:equipment_id/status", h.GetEquipmentStatus)

		// Push subscriptions
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
