package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/middleware"
	"github.com/mossy-p/seeforme-signaling/internal/models"
	"github.com/redis/go-redis/v9"
)

// SendNotification publishes an operator supplied notification on the
// topic's Redis channel for the push gateway.
func SendNotification(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notifications are disabled"})
			return
		}

		var req models.NotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		n := models.Notification{Topic: req.Topic, Data: req.Data, CreatedAt: time.Now().UTC()}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := events.Notify(ctx, rdb, n); err != nil {
			slog.Error("failed to send notification", "topic", req.Topic, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send notification"})
			return
		}

		slog.Info("notification sent", "topic", req.Topic,
			"by", c.GetString(middleware.ContextSubject), "role", c.GetString(middleware.ContextRole))
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "topic": req.Topic})
	}
}
