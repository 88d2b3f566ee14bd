package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
	"github.com/mossy-p/seeforme-signaling/internal/signaling"
	"github.com/redis/go-redis/v9"
)

const statsTimeout = 3 * time.Second

// GetStats reports the hub's tables. With Redis enabled the online counts
// come from the presence sets, otherwise they are counted from the
// registry snapshot.
func GetStats(hub *signaling.Hub, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), statsTimeout)
		defer cancel()

		snap, err := hub.Snapshot(ctx)
		if err != nil {
			slog.Error("failed to snapshot hub", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Signaling hub unavailable"})
			return
		}

		resp := models.StatsResponse{
			Policy:        string(snap.Policy),
			Connected:     snap.Connected,
			QueuedSeekers: len(snap.Seekers),
			ReadyHelpers:  len(snap.Helpers),
			ActiveCalls:   snap.ActiveCalls,
			GeneratedAt:   time.Now().UTC(),
		}
		resp.OnlineSeekers, resp.OnlineHelpers = onlineCounts(ctx, rdb, snap)

		c.JSON(http.StatusOK, resp)
	}
}

func onlineCounts(ctx context.Context, rdb *redis.Client, snap signaling.Snapshot) (seekers, helpers int64) {
	if rdb != nil {
		s, errS := events.OnlineCount(ctx, rdb, models.RoleSeeker.String())
		h, errH := events.OnlineCount(ctx, rdb, models.RoleHelper.String())
		if errS == nil && errH == nil {
			return s, h
		}
		slog.Warn("failed to read presence from redis, using hub counts", "seekers_error", errS, "helpers_error", errH)
	}
	return int64(snap.OnlineSeekers), int64(snap.OnlineHelpers)
}
