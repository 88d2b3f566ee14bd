package signaling

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/seeforme-signaling/internal/models"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 64 * 1024
	defaultSendBuffer     = 256
)

// ClientOptions tunes the per-connection pumps
type ClientOptions struct {
	PongWait             time.Duration
	MaxMessageBytes      int64
	MaxMessagesPerSecond int
	SendBuffer           int
	Logger               *slog.Logger
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = defaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Client is one WebSocket connection. Name, Role and LoggedInAt are
// written only by the hub goroutine.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan *models.Message

	Name       string
	Role       models.Role
	LoggedInAt time.Time

	opts    ClientOptions
	log     *slog.Logger
	limiter *rate.Limiter
	closed  bool
}

// NewClient wraps conn. conn may be nil for clients driven directly by
// the hub, as in tests.
func NewClient(conn *websocket.Conn, opts ClientOptions) *Client {
	opts = opts.withDefaults()
	c := &Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan *models.Message, opts.SendBuffer),
		opts: opts,
		log:  opts.Logger,
	}
	if opts.MaxMessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MaxMessagesPerSecond), opts.MaxMessagesPerSecond)
	}
	return c
}

func (c *Client) loggedIn() bool {
	return c.Name != ""
}

// send queues msg without blocking. A full buffer drops the frame.
func (c *Client) send(msg *models.Message) bool {
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		c.log.Warn("send buffer full, dropping message", "conn", c.ID, "name", c.Name, "type", msg.Type)
		return false
	}
}

// ReadPump reads frames from the connection and hands them to the hub.
// It unregisters the client when the connection ends.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.opts.MaxMessageBytes)
	c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read error", "conn", c.ID, "name", c.Name, "error", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.log.Warn("rate limit exceeded, dropping message", "conn", c.ID)
			continue
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			c.log.Warn("dropping malformed message", "conn", c.ID, "error", err)
			continue
		}

		if !h.Deliver(c, msg) {
			return
		}
	}
}

// WritePump drains Send into the connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.Warn("failed to write message", "conn", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// DecodeMessage parses one inbound frame. A frame without a type is malformed.
func DecodeMessage(data []byte) (*models.Message, error) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, malformed("decode", "type")
	}
	return &msg, nil
}
