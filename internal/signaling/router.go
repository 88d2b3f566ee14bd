package signaling

import (
	"errors"
	"fmt"
	"time"

	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
)

// route dispatches one inbound message and reports any rejection back
// to the sender.
func (h *Hub) route(c *Client, msg *models.Message) {
	if c.closed {
		h.log.Debug("dropping message from closed connection", "conn", c.ID, "type", msg.Type)
		return
	}
	h.log.Debug("message received", "conn", c.ID, "name", c.Name, "type", msg.Type)

	var err error
	switch msg.Type {
	case models.TypeLogin:
		err = h.handleLogin(c, msg)
	case models.TypeRequestCall, models.TypeCancelRequest,
		models.TypeVolunteerReady, models.TypeVolunteerUnavailable,
		models.TypeOffer, models.TypeAnswer, models.TypeCandidate, models.TypeLeave:
		if !c.loggedIn() {
			err = reject(string(msg.Type), ErrNotLoggedIn, "You must log in first")
			break
		}
		err = h.routeLoggedIn(c, msg)
	default:
		err = reject(string(msg.Type), errors.New("unknown type"), "Unknown message type")
	}

	h.respond(c, msg, err)
}

func (h *Hub) routeLoggedIn(c *Client, msg *models.Message) error {
	switch msg.Type {
	case models.TypeRequestCall:
		return h.handleRequestCall(c)
	case models.TypeCancelRequest:
		return h.handleCancelRequest(c)
	case models.TypeVolunteerReady:
		return h.handleVolunteerReady(c)
	case models.TypeVolunteerUnavailable:
		return h.handleVolunteerUnavailable(c)
	case models.TypeOffer:
		return h.handleOffer(c, msg)
	case models.TypeAnswer:
		return h.handleAnswer(c, msg)
	case models.TypeCandidate:
		return h.handleCandidate(c, msg)
	case models.TypeLeave:
		return h.handleLeave(c, msg)
	}
	return nil
}

func (h *Hub) respond(c *Client, msg *models.Message, err error) {
	if err == nil {
		return
	}

	var perr *ProtocolError
	switch {
	case errors.As(err, &perr):
		h.log.Info("rejected message", "conn", c.ID, "name", c.Name, "type", msg.Type, "error", err)
		c.send(models.ErrorMessage(perr.Message))
	case errors.Is(err, ErrMalformed):
		h.log.Warn("dropping malformed message", "conn", c.ID, "name", c.Name, "type", msg.Type, "error", err)
	default:
		h.log.Error("failed to handle message", "conn", c.ID, "name", c.Name, "type", msg.Type, "error", err)
	}
}

func (h *Hub) handleLogin(c *Client, msg *models.Message) error {
	if c.loggedIn() {
		return reject("login", ErrAlreadyLoggedIn, "Already logged in")
	}
	if msg.Name == "" {
		return malformed("login", "name")
	}

	var role models.Role
	if h.policy == config.PolicyQueue {
		if msg.Role == "" {
			c.send(loginFailed("Role is required"))
			return nil
		}
		r, err := models.ParseRole(msg.Role)
		if err != nil || (r != models.RoleSeeker && r != models.RoleHelper) {
			c.send(loginFailed(fmt.Sprintf("Unknown role %q", msg.Role)))
			return nil
		}
		role = r
	} else {
		role = h.legacyRole()
	}

	if err := h.registry.Register(msg.Name, c); err != nil {
		h.log.Info("login rejected", "conn", c.ID, "name", msg.Name, "error", err)
		c.send(loginFailed("Username is taken"))
		return nil
	}
	c.Role = role
	c.LoggedInAt = time.Now()

	c.send(&models.Message{Type: models.TypeLogin, Success: models.Bool(true), Role: role.String(), Name: c.Name})
	h.publish(events.Event{Kind: events.KindOnline, Name: c.Name, Role: role.String(), At: c.LoggedInAt})
	h.log.Info("user logged in", "name", c.Name, "role", role, "conn", c.ID)

	if h.policy == config.PolicyLegacy {
		h.takeSlot(c.Name)
		return nil
	}
	if role == models.RoleSeeker {
		h.enqueueSeeker(c.Name)
		h.matchPass()
	}
	return nil
}

func loginFailed(text string) *models.Message {
	return &models.Message{Type: models.TypeLogin, Success: models.Bool(false), Message: text}
}

func (h *Hub) handleRequestCall(c *Client) error {
	if c.Role != models.RoleSeeker {
		return reject("request_call", ErrRoleMismatch, "Only blind users can request a call")
	}
	if h.pairs.InCall(c.Name) {
		return reject("request_call", ErrAlreadyInCall, "Already in a call")
	}

	pos := h.enqueueSeeker(c.Name)
	c.send(&models.Message{Type: models.TypeQueued, Position: pos})
	h.matchPass()
	return nil
}

func (h *Hub) handleCancelRequest(c *Client) error {
	if c.Role != models.RoleSeeker {
		return reject("cancel_request", ErrRoleMismatch, "Only blind users can cancel a request")
	}
	if h.seekers.Remove(c.Name) {
		h.log.Info("seeker left queue", "name", c.Name)
	}
	c.send(&models.Message{Type: models.TypeRequestCancelled})
	h.matchPass()
	return nil
}

func (h *Hub) handleVolunteerReady(c *Client) error {
	if c.Role != models.RoleHelper {
		return reject("volunteer_ready", ErrRoleMismatch, "Only volunteers can report ready")
	}
	if h.pairs.InCall(c.Name) {
		return reject("volunteer_ready", ErrAlreadyInCall, "Already in a call")
	}

	h.enqueueHelper(c.Name)
	h.matchPass()
	return nil
}

func (h *Hub) handleVolunteerUnavailable(c *Client) error {
	if c.Role != models.RoleHelper {
		return reject("volunteer_unavailable", ErrRoleMismatch, "Only volunteers can report unavailable")
	}
	if h.helpers.Remove(c.Name) {
		h.log.Info("volunteer left queue", "name", c.Name)
	}
	h.matchPass()
	return nil
}

// relayTarget resolves the addressee of a relayed message
func (h *Hub) relayTarget(op string, c *Client, target string) (*Client, error) {
	if target == "" {
		return nil, malformed(op, "target")
	}
	if target == c.Name {
		return nil, reject(op, ErrTargetUnavailable, "Cannot send to yourself")
	}
	t, ok := h.registry.Lookup(target)
	if !ok {
		return nil, reject(op, ErrTargetUnavailable, fmt.Sprintf("User %s is not connected.", target))
	}
	return t, nil
}

func (h *Hub) handleOffer(c *Client, msg *models.Message) error {
	if h.policy == config.PolicyLegacy && c.Role != models.RoleCaller {
		return reject("offer", ErrRoleMismatch, "Only the caller can send an offer.")
	}
	if len(msg.Offer) == 0 {
		return malformed("offer", "offer")
	}
	t, err := h.relayTarget("offer", c, msg.Target)
	if err != nil {
		return err
	}

	if h.policy == config.PolicyLegacy {
		if err := h.pairOnOffer(c.Name, t.Name); err != nil {
			return err
		}
	}

	t.send(&models.Message{Type: models.TypeOffer, Offer: msg.Offer, Name: c.Name})
	h.log.Info("offer relayed", "from", c.Name, "to", t.Name)
	return nil
}

// pairOnOffer opens the legacy call between caller and target. Repeated
// offers inside the same call are renegotiations and pass through.
func (h *Hub) pairOnOffer(caller, target string) error {
	if partner, ok := h.pairs.PartnerOf(caller); ok {
		if partner == target {
			return nil
		}
		return reject("offer", ErrAlreadyInCall, "Target user not ready or call already in progress.")
	}
	if h.pairs.InCall(target) {
		return reject("offer", ErrAlreadyInCall, "Target user not ready or call already in progress.")
	}

	pair := h.pairs.Pair(caller, target)
	h.publish(events.Event{Kind: events.KindCallStarted, Name: caller, Peer: target, CallID: pair.ID, At: pair.StartedAt})
	return nil
}

func (h *Hub) handleAnswer(c *Client, msg *models.Message) error {
	if h.policy == config.PolicyLegacy && c.Role != models.RoleCallee {
		return reject("answer", ErrRoleMismatch, "Only the callee can send an answer.")
	}
	if len(msg.Answer) == 0 {
		return malformed("answer", "answer")
	}
	t, err := h.relayTarget("answer", c, msg.Target)
	if err != nil {
		return err
	}

	t.send(&models.Message{Type: models.TypeAnswer, Answer: msg.Answer, Name: c.Name})
	h.log.Info("answer relayed", "from", c.Name, "to", t.Name)
	return nil
}

func (h *Hub) handleCandidate(c *Client, msg *models.Message) error {
	if len(msg.Candidate) == 0 {
		return malformed("candidate", "candidate")
	}
	t, err := h.relayTarget("candidate", c, msg.Target)
	if err != nil {
		return err
	}

	t.send(&models.Message{Type: models.TypeCandidate, Candidate: msg.Candidate, Name: c.Name})
	h.log.Debug("candidate relayed", "from", c.Name, "to", t.Name)
	return nil
}

// handleLeave notifies the target, dissolves the sender's call and puts
// freed volunteers back in the pool. Without a target the current
// partner is addressed.
func (h *Hub) handleLeave(c *Client, msg *models.Message) error {
	pair, paired := h.pairs.Call(c.Name)

	targetName := msg.Target
	if targetName == "" {
		if !paired {
			return reject("leave", ErrTargetUnavailable, "You are not in a call")
		}
		targetName = pair.Other(c.Name)
	}

	t, ok := h.registry.Lookup(targetName)
	if !ok && !paired {
		return reject("leave", ErrTargetUnavailable, fmt.Sprintf("User %s is not connected.", targetName))
	}
	if ok && t != c {
		t.send(&models.Message{Type: models.TypeLeave, Name: c.Name})
		t.send(&models.Message{
			Type:    models.TypeCallEnded,
			Reason:  models.ReasonPartnerLeft,
			Message: c.Name + " has left the call",
			CallID:  pair.ID,
		})
	}

	if paired {
		h.pairs.Unpair(c.Name)
		partner := pair.Other(c.Name)
		if partner != targetName {
			h.sendTo(partner, &models.Message{
				Type:    models.TypeCallEnded,
				Reason:  models.ReasonPartnerLeft,
				Message: c.Name + " has left the call",
				CallID:  pair.ID,
			})
		}
		h.publish(events.Event{
			Kind:   events.KindCallEnded,
			Name:   c.Name,
			Peer:   partner,
			CallID: pair.ID,
			Reason: models.ReasonPartnerLeft,
			At:     time.Now(),
		})
	}

	c.send(&models.Message{Type: models.TypeCallEnded, Reason: models.ReasonLeft, Message: "You left the call", CallID: pair.ID})
	h.log.Info("participant left call", "name", c.Name, "target", targetName)

	if paired {
		h.returnHelpers(pair)
		h.matchPass()
	}
	return nil
}
