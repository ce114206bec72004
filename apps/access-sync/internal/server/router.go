package server

import (
	"github.com/gin-gonic/gin"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/handler"
	"golang.org/x/time/rate"
)

// SetupRouter はルーティングを設定する。
func SetupRouter(engine *gin.Engine, h *handler.AccessHandler, limiter *rate.Limiter) {
	// ヘルスチェック
	engine.GET("/health", h.HandleHealth)

	// API v1
	v1 := engine.Group("/api/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		v1.POST("/subscribers/:username/suspend", h.HandleSuspend)
		v1.POST("/subscribers/:username/restore", h.HandleRestore)
		v1.POST("/subscribers/:username/terminate", h.HandleTerminate)
		v1.POST("/leases/:mac/cut", h.HandleCutByMAC)
	}
}
