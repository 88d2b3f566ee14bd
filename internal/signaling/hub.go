package signaling

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
)

// inbound is one event from a connection. A nil msg means the connection
// closed. Both travel on the same channel so a client's close is handled
// after every message it sent before.
type inbound struct {
	client *Client
	msg    *models.Message
}

// Snapshot is a point-in-time view of the hub's tables
type Snapshot struct {
	Policy        config.Policy
	Connected     int
	OnlineSeekers int
	OnlineHelpers int
	Online        []string
	Seekers       []string
	Helpers       []string
	Slots         []string
	ActiveCalls   int
}

// Options configures a Hub
type Options struct {
	Policy config.Policy
	Events events.Sink
	Logger *slog.Logger
}

// Hub owns the registry, the wait queues and the pairing table. All of
// them are touched only from the goroutine running Run.
type Hub struct {
	policy config.Policy
	events events.Sink
	log    *slog.Logger

	clients  map[*Client]struct{}
	registry *Registry
	seekers  *WaitQueue
	helpers  *WaitQueue
	pairs    *PairingTable

	// legacy policy: names holding the caller and callee slots, in login order
	slots []string

	register  chan *Client
	inbound   chan inbound
	snapshots chan chan Snapshot
	done      chan struct{}
}

func NewHub(opts Options) *Hub {
	if opts.Policy == "" {
		opts.Policy = config.PolicyQueue
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		policy:    opts.Policy,
		events:    opts.Events,
		log:       opts.Logger,
		clients:   make(map[*Client]struct{}),
		registry:  NewRegistry(),
		seekers:   NewWaitQueue(),
		helpers:   NewWaitQueue(),
		pairs:     NewPairingTable(),
		register:  make(chan *Client),
		inbound:   make(chan inbound, 64),
		snapshots: make(chan chan Snapshot),
		done:      make(chan struct{}),
	}
}

func (h *Hub) Policy() config.Policy {
	return h.policy
}

// Logger is the logger the hub and its clients write to
func (h *Hub) Logger() *slog.Logger {
	return h.log
}

// Run processes connection events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Info("hub started", "policy", h.policy)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("hub stopped")
			return

		case c := <-h.register:
			h.safely("register", c, func() { h.handleRegister(c) })

		case in := <-h.inbound:
			if in.msg == nil {
				h.safely("unregister", in.client, func() { h.handleUnregister(in.client) })
				continue
			}
			h.safely(string(in.msg.Type), in.client, func() { h.route(in.client, in.msg) })

		case reply := <-h.snapshots:
			reply <- h.snapshot()
		}
	}
}

// Register announces a new connection. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister announces that c's connection has closed. It is queued
// behind the messages c already delivered.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.inbound <- inbound{client: c}:
	case <-h.done:
	}
}

// Deliver hands an inbound message to the hub
func (h *Hub) Deliver(c *Client, msg *models.Message) bool {
	if msg == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

// Snapshot asks the hub goroutine for a copy of its state
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case h.snapshots <- reply:
	case <-h.done:
		return Snapshot{}, context.Canceled
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (h *Hub) snapshot() Snapshot {
	slots := make([]string, len(h.slots))
	copy(slots, h.slots)

	var seekers, helpers int
	names := h.registry.Names()
	for _, name := range names {
		c, _ := h.registry.Lookup(name)
		switch c.Role {
		case models.RoleSeeker:
			seekers++
		case models.RoleHelper:
			helpers++
		}
	}

	return Snapshot{
		Policy:        h.policy,
		Connected:     h.registry.Len(),
		OnlineSeekers: seekers,
		OnlineHelpers: helpers,
		Online:        names,
		Seekers:       h.seekers.Names(),
		Helpers:       h.helpers.Names(),
		Slots:         slots,
		ActiveCalls:   h.pairs.Len(),
	}
}

// closeAll closes every live connection's send channel so its write pump
// sends a close frame and tears the socket down.
func (h *Hub) closeAll() {
	for c := range h.clients {
		if !c.closed {
			c.closed = true
			close(c.Send)
		}
	}
	h.log.Info("closed remaining connections", "count", len(h.clients))
	h.clients = make(map[*Client]struct{})
}

// safely runs fn and turns a panic into a log line so one bad message
// cannot take the other connections down with it.
func (h *Hub) safely(op string, c *Client, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("recovered from panic in hub handler",
				"op", op, "conn", c.ID, "name", c.Name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// sendTo delivers msg to name if it is online
func (h *Hub) sendTo(name string, msg *models.Message) bool {
	c, ok := h.registry.Lookup(name)
	if !ok {
		return false
	}
	return c.send(msg)
}

func (h *Hub) publish(e events.Event) {
	h.events.Publish(e)
}
