package signaling

import (
	"time"

	"github.com/google/uuid"
)

// CallPair records that two participants are in a call with each other
type CallPair struct {
	ID        string
	A         string
	B         string
	StartedAt time.Time
}

// Other returns the participant of the pair that is not name
func (p CallPair) Other(name string) string {
	if p.A == name {
		return p.B
	}
	return p.A
}

// PairingTable stores each call under both participant names so partner
// lookup is O(1) in either direction.
type PairingTable struct {
	calls map[string]*CallPair
}

func NewPairingTable() *PairingTable {
	return &PairingTable{calls: make(map[string]*CallPair)}
}

// Pair links a and b, first dissolving any call either of them was in
func (t *PairingTable) Pair(a, b string) CallPair {
	t.Unpair(a)
	t.Unpair(b)

	p := &CallPair{
		ID:        uuid.New().String(),
		A:         a,
		B:         b,
		StartedAt: time.Now(),
	}
	t.calls[a] = p
	t.calls[b] = p
	return *p
}

func (t *PairingTable) PartnerOf(name string) (string, bool) {
	p, ok := t.calls[name]
	if !ok {
		return "", false
	}
	return p.Other(name), true
}

func (t *PairingTable) Call(name string) (CallPair, bool) {
	p, ok := t.calls[name]
	if !ok {
		return CallPair{}, false
	}
	return *p, true
}

func (t *PairingTable) InCall(name string) bool {
	_, ok := t.calls[name]
	return ok
}

// Unpair removes both directions of name's call. It returns the removed
// pair, or false when name was not in a call.
func (t *PairingTable) Unpair(name string) (CallPair, bool) {
	p, ok := t.calls[name]
	if !ok {
		return CallPair{}, false
	}
	delete(t.calls, p.A)
	delete(t.calls, p.B)
	return *p, true
}

// Len returns the number of active calls
func (t *PairingTable) Len() int {
	return len(t.calls) / 2
}
