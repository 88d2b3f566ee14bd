// Package events carries signaling state changes out of the hub to
// observers such as the Redis presence mirror.
package events

import "time"

type Kind string

const (
	KindOnline        Kind = "online"
	KindOffline       Kind = "offline"
	KindCallStarted   Kind = "call_started"
	KindCallEnded     Kind = "call_ended"
	KindHelpRequested Kind = "help_requested"
)

// Event describes one state change. Peer and CallID are set for call
// events only; Reason only for KindCallEnded.
type Event struct {
	Kind   Kind
	Name   string
	Role   string
	Peer   string
	CallID string
	Reason string
	At     time.Time
}

// Sink receives events from the hub goroutine. Publish must not block.
type Sink interface {
	Publish(e Event)
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(Event) {}
