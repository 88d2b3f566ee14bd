package signaling

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mossy-p/seeforme-signaling/config"
	"github.com/mossy-p/seeforme-signaling/internal/events"
	"github.com/mossy-p/seeforme-signaling/internal/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingSink) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSink) kinds(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestHub(t *testing.T, policy config.Policy) (*Hub, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	h := NewHub(Options{
		Policy: policy,
		Events: sink,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h, sink
}

func connect(h *Hub) *Client {
	c := NewClient(nil, ClientOptions{SendBuffer: 64})
	h.handleRegister(c)
	return c
}

// login connects a client, logs it in and discards the login reply
func login(t *testing.T, h *Hub, name, role string) *Client {
	t.Helper()
	c := connect(h)
	h.route(c, &models.Message{Type: models.TypeLogin, Name: name, Role: role})
	reply := next(t, c)
	if reply.Type != models.TypeLogin || reply.Success == nil || !*reply.Success {
		t.Fatalf("login %s: unexpected reply %+v", name, reply)
	}
	return c
}

func drain(c *Client) []*models.Message {
	var out []*models.Message
	for {
		select {
		case m, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func next(t *testing.T, c *Client) *models.Message {
	t.Helper()
	select {
	case m, ok := <-c.Send:
		if !ok {
			t.Fatalf("send channel of %q closed", c.Name)
		}
		return m
	default:
		t.Fatalf("no pending message for %q", c.Name)
		return nil
	}
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	if msgs := drain(c); len(msgs) != 0 {
		t.Fatalf("unexpected messages for %q: %s", c.Name, dump(msgs))
	}
}

func ofType(msgs []*models.Message, typ models.MessageType) []*models.Message {
	var out []*models.Message
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func dump(msgs []*models.Message) string {
	b, _ := json.Marshal(msgs)
	return string(b)
}

func raw(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
