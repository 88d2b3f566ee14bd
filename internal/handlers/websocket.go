package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/seeforme-signaling/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by OriginFilter
		return true
	},
}

// HandleSignaling upgrades the request and hands the connection to hub.
// Login happens over the socket, so the route itself is unauthenticated.
func HandleSignaling(hub *signaling.Hub, opts signaling.ClientOptions) gin.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = hub.Logger()
	}
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			opts.Logger.Warn("failed to upgrade connection", "remote", c.ClientIP(), "error", err)
			return
		}

		client := signaling.NewClient(conn, opts)
		if !hub.Register(client) {
			opts.Logger.Warn("hub stopped, refusing connection", "remote", c.ClientIP())
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}
		opts.Logger.Debug("websocket connected", "conn", client.ID, "remote", c.ClientIP())

		go client.WritePump()
		go client.ReadPump(hub)
	}
}
