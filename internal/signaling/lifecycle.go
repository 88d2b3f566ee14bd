package signaling

import (
	"time"

	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
)

func (h *Hub) handleRegister(c *Client) {
	h.clients[c] = struct{}{}
	h.log.Debug("client connected", "conn", c.ID)
}

// handleUnregister tears down everything a closed connection held. It is
// safe to call more than once for the same client.
func (h *Hub) handleUnregister(c *Client) {
	if c.closed {
		return
	}

	if c.loggedIn() {
		if current, ok := h.registry.Lookup(c.Name); ok && current == c {
			h.dropParticipant(c)
		}
	}

	delete(h.clients, c)
	c.closed = true
	close(c.Send)
	h.log.Debug("client disconnected", "conn", c.ID, "name", c.Name)
}

func (h *Hub) dropParticipant(c *Client) {
	name := c.Name
	h.log.Info("participant disconnected", "name", name, "role", c.Role)

	h.registry.Unregister(name)
	h.seekers.Remove(name)
	h.helpers.Remove(name)
	h.releaseSlot(name)

	if pair, ok := h.pairs.Unpair(name); ok {
		partner := pair.Other(name)
		h.sendTo(partner, &models.Message{
			Type:    models.TypeCallEnded,
			Reason:  models.ReasonPartnerDisconnected,
			Message: name + " disconnected",
			CallID:  pair.ID,
		})
		h.publish(events.Event{
			Kind:   events.KindCallEnded,
			Name:   name,
			Peer:   partner,
			CallID: pair.ID,
			Reason: models.ReasonPartnerDisconnected,
			At:     time.Now(),
		})
		h.returnHelpers(pair)
	}

	h.publish(events.Event{Kind: events.KindOffline, Name: name, Role: c.Role.String(), At: time.Now()})
	h.matchPass()
}
