package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/middleware"
	"github.com/mossy-p/seeforme-signaling/internal/signaling"
	"github.com/redis/go-redis/v9"
)

// NewRouter wires the HTTP surface. rdb is nil when Redis is disabled.
func NewRouter(cfg *config.Config, hub *signaling.Hub, rdb *redis.Client) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api", middleware.JWTAuth(cfg.JWTSecret))
	{
		apiGroup.GET("/stats", GetStats(hub, rdb))
		apiGroup.POST("/send-notification", SendNotification(rdb))
	}

	signal := HandleSignaling(hub, clientOptions(cfg.WebSocket))
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("", signal)
		wsGroup.GET("/signal", signal)
	}

	return router
}

func clientOptions(ws config.WebSocketConfig) signaling.ClientOptions {
	return signaling.ClientOptions{
		PongWait:             ws.PongWait,
		MaxMessageBytes:      ws.MaxMessageBytes,
		MaxMessagesPerSecond: ws.MaxMessagesPerSecond,
		SendBuffer:           ws.SendBuffer,
	}
}
