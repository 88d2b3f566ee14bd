package models

import "encoding/json"

// MessageType is the mandatory "type" field of every signaling frame
type MessageType string

// Client to server
const (
	TypeLogin                MessageType = "login"
	TypeRequestCall          MessageType = "request_call"
	TypeCancelRequest        MessageType = "cancel_request"
	TypeVolunteerReady       MessageType = "volunteer_ready"
	TypeVolunteerUnavailable MessageType = "volunteer_unavailable"
	TypeOffer                MessageType = "offer"
	TypeAnswer               MessageType = "answer"
	TypeCandidate            MessageType = "candidate"
	TypeLeave                MessageType = "leave"
)

// Server to client. login, offer, answer, candidate and leave are reused
// in this direction as well.
const (
	TypeQueued           MessageType = "queued"
	TypeRequestCancelled MessageType = "request_cancelled"
	TypeReady            MessageType = "ready"
	TypeCallMatched      MessageType = "call_matched"
	TypeCallRequest      MessageType = "call_request"
	TypeCallEnded        MessageType = "call_ended"
	TypeError            MessageType = "error"
)

// Reasons carried by call_ended
const (
	ReasonPartnerLeft         = "partner_left"
	ReasonPartnerDisconnected = "partner_disconnected"
	ReasonLeft                = "left"
)

// Message is the signaling envelope shared by both directions.
// Offer, Answer and Candidate are opaque and relayed byte for byte.
type Message struct {
	Type      MessageType     `json:"type"`
	Name      string          `json:"name,omitempty"`
	Role      string          `json:"role,omitempty"`
	Target    string          `json:"target,omitempty"`
	From      string          `json:"from,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Message   string          `json:"message,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Position  int             `json:"position,omitempty"`
	CallID    string          `json:"callId,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// ErrorMessage builds an error{message} frame
func ErrorMessage(text string) *Message {
	return &Message{Type: TypeError, Message: text}
}

// Bool returns a pointer to b, for the Success field
func Bool(b bool) *bool {
	return &b
}
