package signaling

import (
	"time"

	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
)

// enqueueSeeker puts name in the seeker queue and returns its position.
// A help request goes out when nobody is waiting to take the call.
func (h *Hub) enqueueSeeker(name string) int {
	if h.seekers.Contains(name) {
		return h.seekers.Position(name)
	}
	pos := h.seekers.Push(name)
	h.log.Info("seeker queued", "name", name, "position", pos)
	if h.helpers.Len() == 0 {
		h.publish(events.Event{Kind: events.KindHelpRequested, Name: name, At: time.Now()})
	}
	return pos
}

func (h *Hub) enqueueHelper(name string) {
	if h.helpers.Contains(name) {
		return
	}
	pos := h.helpers.Push(name)
	h.log.Info("volunteer ready", "name", name, "position", pos)
}

// matchPass pairs queue heads until one queue runs dry. Heads that went
// offline or got into a call since they were queued are dropped.
func (h *Hub) matchPass() {
	if h.policy != config.PolicyQueue {
		return
	}

	for h.seekers.Len() > 0 && h.helpers.Len() > 0 {
		seekerName, _ := h.seekers.Peek()
		helperName, _ := h.helpers.Peek()

		seeker, ok := h.registry.Lookup(seekerName)
		if !ok || h.pairs.InCall(seekerName) {
			h.seekers.Pop()
			h.log.Debug("dropped stale seeker from queue", "name", seekerName)
			continue
		}
		helper, ok := h.registry.Lookup(helperName)
		if !ok || h.pairs.InCall(helperName) {
			h.helpers.Pop()
			h.log.Debug("dropped stale volunteer from queue", "name", helperName)
			continue
		}

		h.seekers.Pop()
		h.helpers.Pop()
		pair := h.pairs.Pair(seekerName, helperName)

		seeker.send(&models.Message{Type: models.TypeCallMatched, Target: helperName, CallID: pair.ID})
		helper.send(&models.Message{Type: models.TypeCallRequest, From: seekerName, CallID: pair.ID})

		h.publish(events.Event{
			Kind:   events.KindCallStarted,
			Name:   seekerName,
			Peer:   helperName,
			CallID: pair.ID,
			At:     pair.StartedAt,
		})
		h.log.Info("call matched", "seeker", seekerName, "volunteer", helperName, "call", pair.ID)
	}
}

// returnHelpers puts the volunteers of an ended call that are still
// online back in the helper queue.
func (h *Hub) returnHelpers(p CallPair) {
	if h.policy != config.PolicyQueue {
		return
	}
	for _, name := range []string{p.A, p.B} {
		c, ok := h.registry.Lookup(name)
		if ok && c.Role == models.RoleHelper && !h.pairs.InCall(name) {
			h.enqueueHelper(name)
		}
	}
}

// legacyRole picks the role of a new login under the two-slot policy:
// whichever of caller/callee is not held yet, callee once both are taken.
func (h *Hub) legacyRole() models.Role {
	for _, name := range h.slots {
		if c, ok := h.registry.Lookup(name); ok && c.Role == models.RoleCaller {
			return models.RoleCallee
		}
	}
	if len(h.slots) >= 2 {
		return models.RoleCallee
	}
	return models.RoleCaller
}

// takeSlot seats name in a free slot and announces ready once both are filled
func (h *Hub) takeSlot(name string) {
	if len(h.slots) >= 2 {
		h.log.Info("both slots taken, login has no peer", "name", name)
		return
	}
	h.slots = append(h.slots, name)
	if len(h.slots) == 2 {
		h.log.Info("both users are ready, call can start", "caller_slot", h.slots[0], "callee_slot", h.slots[1])
		for _, n := range h.slots {
			h.sendTo(n, &models.Message{Type: models.TypeReady})
		}
	}
}

func (h *Hub) releaseSlot(name string) {
	for i, n := range h.slots {
		if n == name {
			h.slots = append(h.slots[:i], h.slots[i+1:]...)
			return
		}
	}
}
